package orchestrator_test

import (
	"bytes"
	"context"
	"sync"

	"go.trai.ch/kiln/internal/core/ports"
)

type fakeSpan struct {
	name  string
	phase bool
	attrs map[string]any
	err   error
	ended bool
	out   bytes.Buffer
}

func (s *fakeSpan) Write(p []byte) (int, error) { return s.out.Write(p) }
func (s *fakeSpan) End()                        { s.ended = true }
func (s *fakeSpan) RecordError(err error)       { s.err = err }
func (s *fakeSpan) SetAttribute(key string, value any) {
	s.attrs[key] = value
}

type fakeTracer struct {
	mu        sync.Mutex
	spans     []*fakeSpan
	plan      []string
	deps      map[string][]string
	requested []string
}

func (t *fakeTracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	span := &fakeSpan{name: name, phase: cfg.Phase, attrs: make(map[string]any)}
	t.spans = append(t.spans, span)
	return ctx, span
}

func (t *fakeTracer) EmitPlan(_ context.Context, targets []string, deps map[string][]string, requested []string) {
	t.plan, t.deps, t.requested = targets, deps, requested
}

func (t *fakeTracer) span(name string) *fakeSpan {
	for _, s := range t.spans {
		if s.name == name && !s.phase {
			return s
		}
	}
	return nil
}

func (t *fakeTracer) names() []string {
	names := make([]string, 0, len(t.spans))
	for _, s := range t.spans {
		names = append(names, s.name)
	}
	return names
}
