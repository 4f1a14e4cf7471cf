package ports

import (
	"context"
	"io"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// AttrCached is the span attribute marking a target that was skipped because it is already built.
const AttrCached = "kiln.cached"

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	// EmitPlan signals the resolved build order before any target starts.
	EmitPlan(ctx context.Context, targets []string, deps map[string][]string, requested []string)
}

// Span represents a unit of work.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// SpanConfig holds configuration for a starting span.
type SpanConfig struct {
	// Phase marks the span as a phase of an enclosing target span.
	Phase bool
}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)

// AsPhase marks a span as a build phase nested in a target span.
func AsPhase() SpanOption {
	return func(c *SpanConfig) {
		c.Phase = true
	}
}
