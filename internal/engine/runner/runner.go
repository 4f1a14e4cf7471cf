// Package runner binds the executor to a run's environment overlay and an output sink.
package runner

import (
	"context"
	"io"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// Runner executes commands with the current overlay of a build environment.
type Runner struct {
	executor ports.Executor
	env      *domain.Environment
	out      io.Writer
}

// New creates a Runner writing combined command output to out.
func New(executor ports.Executor, env *domain.Environment, out io.Writer) *Runner {
	if out == nil {
		out = io.Discard
	}
	return &Runner{executor: executor, env: env, out: out}
}

// Run executes cmd. The overlay is read at call time, so transient overrides set by hooks apply.
func (r *Runner) Run(ctx context.Context, cmd *domain.Command) error {
	var env []string
	if r.env != nil {
		env = r.env.Entries()
	}
	return r.executor.Execute(ctx, cmd, env, r.out, r.out)
}
