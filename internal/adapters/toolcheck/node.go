package toolcheck

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the tool finder Graft node.
const NodeID graft.ID = "adapter.toolcheck"

func init() {
	graft.Register(graft.Node[ports.ToolFinder]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ToolFinder, error) {
			return NewFinder(), nil
		},
	})
}
