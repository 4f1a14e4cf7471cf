package ports

import (
	"context"
	"time"
)

// Renderer is the abstraction for output rendering.
// It decouples telemetry collection from presentation logic.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer and begins its lifecycle.
	Start(ctx context.Context) error

	// Stop signals the renderer to stop accepting new events and flush buffered output.
	Stop() error

	// Wait blocks until the renderer has fully terminated.
	Wait() error

	// OnPlanEmit is called once the build order is resolved.
	// targets: every target in build order
	// deps: dependency map (target -> dependencies)
	// requested: the user-requested targets
	OnPlanEmit(targets []string, deps map[string][]string, requested []string)

	// OnTaskStart is called when a target or one of its phases begins.
	// parentID is empty for targets and holds the target span for phases.
	OnTaskStart(spanID, parentID, name string, startTime time.Time)

	// OnTaskLog is called when a command emits output.
	// data may contain partial lines or ANSI sequences.
	OnTaskLog(spanID string, data []byte)

	// OnTaskComplete is called when a target or phase finishes.
	// cached is true when the target was skipped because it was already built.
	OnTaskComplete(spanID string, endTime time.Time, cached bool, err error)
}
