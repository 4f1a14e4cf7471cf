// Package hooks lets individual targets customize the generic build phases.
package hooks

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Phase names a boundary in a target's build at which hooks fire.
type Phase string

const (
	// PhasePreDependency fires for every registry target before the build order is resolved.
	PhasePreDependency Phase = "pre-dependency"
	// PhasePostDownload fires after the source archive is fetched and extracted.
	PhasePostDownload Phase = "post-download"
	// PhasePreConfigure fires right before the configuration strategy runs.
	PhasePreConfigure Phase = "pre-configure"
	// PhasePostConfigure fires right after the configuration strategy succeeded.
	PhasePostConfigure Phase = "post-configure"
	// PhasePostInstall fires after a successful install, before the ledger entry is written.
	PhasePostInstall Phase = "post-install"
)

// Runner runs external commands with the run's environment overlay.
type Runner interface {
	Run(ctx context.Context, cmd *domain.Command) error
}

// Call is what a hook receives.
type Call struct {
	// BuildContext is the run's shared state.
	BuildContext *domain.BuildContext
	// Target is the run's private copy of the target. Hooks may append to its
	// options and dependencies.
	Target *domain.Target
	// Dir is the target's source directory.
	Dir string
	// Runner executes commands. It is nil during PhasePreDependency.
	Runner Runner
	// Logger reports progress.
	Logger ports.Logger
}

// Func is a hook body. Returning an error aborts the run.
type Func func(ctx context.Context, call *Call) error

// Set holds the callbacks of one target. Nil slots are no-ops.
type Set struct {
	PreDependency Func
	PostDownload  Func
	PreConfigure  Func
	PostConfigure Func
	PostInstall   Func
}

func (s Set) slot(phase Phase) Func {
	switch phase {
	case PhasePreDependency:
		return s.PreDependency
	case PhasePostDownload:
		return s.PostDownload
	case PhasePreConfigure:
		return s.PreConfigure
	case PhasePostConfigure:
		return s.PostConfigure
	case PhasePostInstall:
		return s.PostInstall
	default:
		return nil
	}
}

// Table maps target names to their hooks.
type Table map[string]Set

// Fire runs the hook registered for call.Target at phase, if any.
func (t Table) Fire(ctx context.Context, phase Phase, call *Call) error {
	set, ok := t[call.Target.Name]
	if !ok {
		return nil
	}

	fn := set.slot(phase)
	if fn == nil {
		return nil
	}

	if err := fn(ctx, call); err != nil {
		wrapped := zerr.Wrap(err, domain.ErrHookFailed.Error())
		wrapped = zerr.With(wrapped, "target", call.Target.Name)
		return zerr.With(wrapped, "phase", string(phase))
	}
	return nil
}

// Has reports whether any hook is registered for target at phase.
func (t Table) Has(target string, phase Phase) bool {
	return t[target].slot(phase) != nil
}
