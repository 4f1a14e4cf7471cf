package ledger

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the ledger Graft node.
const NodeID graft.ID = "adapter.ledger"

func init() {
	graft.Register(graft.Node[ports.Ledger]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Ledger, error) {
			return NewStore(), nil
		},
	})
}
