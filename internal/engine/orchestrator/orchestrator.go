// Package orchestrator runs the per-target build pipeline in dependency order.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/configure"
	"go.trai.ch/kiln/internal/engine/download"
	"go.trai.ch/kiln/internal/engine/hooks"
	"go.trai.ch/kiln/internal/engine/runner"
	"go.trai.ch/zerr"
)

// Phase span names, in execution order.
const (
	PhaseDownload  = "download"
	PhaseConfigure = "configure"
	PhaseBuild     = "build"
	PhaseInstall   = "install"
)

// Request describes one run.
type Request struct {
	Manifest *domain.Manifest
	// Targets is the ordered list of requested targets.
	Targets  []string
	Platform domain.OS
	Jobs     int
	NonFree  bool
}

// PlanEntry is one step of a resolved build sequence.
type PlanEntry struct {
	Name   string
	Cached bool
}

// Orchestrator drives targets through download, configuration, build and install.
type Orchestrator struct {
	executor   ports.Executor
	ledger     ports.Ledger
	tools      ports.ToolFinder
	tracer     ports.Tracer
	logger     ports.Logger
	downloads  *download.Manager
	dispatcher *configure.Dispatcher
	hooks      hooks.Table
}

// New creates an Orchestrator.
func New(
	executor ports.Executor,
	ledger ports.Ledger,
	tools ports.ToolFinder,
	tracer ports.Tracer,
	logger ports.Logger,
	downloads *download.Manager,
	dispatcher *configure.Dispatcher,
	table hooks.Table,
) *Orchestrator {
	return &Orchestrator{
		executor:   executor,
		ledger:     ledger,
		tools:      tools,
		tracer:     tracer,
		logger:     logger,
		downloads:  downloads,
		dispatcher: dispatcher,
		hooks:      table,
	}
}

// Plan resolves the build sequence without touching the filesystem.
func (o *Orchestrator) Plan(ctx context.Context, req Request) ([]PlanEntry, error) {
	bc, order, err := o.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	entries := make([]PlanEntry, 0, len(order))
	for _, name := range order {
		entries = append(entries, PlanEntry{Name: name, Cached: o.ledger.IsBuilt(bc.WorkDir, name)})
	}
	return entries, nil
}

// Build runs the requested targets. It stops at the first failing target.
func (o *Orchestrator) Build(ctx context.Context, req Request) error {
	if err := o.preflight(req.Manifest.Tools); err != nil {
		return err
	}

	for _, dir := range []string{req.Manifest.WorkDir, req.Manifest.Prefix} {
		if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrDirectoryCreateFailed.Error()), "path", dir)
		}
	}

	bc, order, err := o.prepare(ctx, req)
	if err != nil {
		return err
	}

	deps := make(map[string][]string, len(order))
	for _, name := range order {
		t, _ := bc.Target(name)
		deps[name] = slices.Clone(t.Dependencies)
	}
	o.tracer.EmitPlan(ctx, order, deps, bc.Requested())

	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return err
		}

		t, _ := bc.Target(name)
		if !t.AppliesTo(bc.Platform) {
			o.logger.Info(fmt.Sprintf("Skipping %s, not supported on %s", name, bc.Platform))
			continue
		}

		if err := o.buildTarget(ctx, bc, t); err != nil {
			return err
		}
	}

	return nil
}

// preflight makes sure every required tool is on PATH.
func (o *Orchestrator) preflight(tools []string) error {
	var missing []string
	for _, tool := range tools {
		if _, err := o.tools.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return zerr.With(domain.ErrMissingTool, "tools", strings.Join(missing, ", "))
	}
	return nil
}

// prepare creates the run state, lets pre-dependency hooks extend the target
// copies and resolves the build sequence.
func (o *Orchestrator) prepare(ctx context.Context, req Request) (*domain.BuildContext, []string, error) {
	reg := req.Manifest.Registry

	requested := make([]string, 0, len(req.Targets))
	for _, name := range req.Targets {
		t, ok := reg.Get(name)
		if !ok {
			return nil, nil, zerr.With(domain.ErrTargetNotFound, "target", name)
		}
		if !t.AppliesTo(req.Platform) {
			o.logger.Info(fmt.Sprintf("Skipping %s, not supported on %s", name, req.Platform))
			continue
		}
		if !slices.Contains(requested, name) {
			requested = append(requested, name)
		}
	}
	if len(requested) == 0 {
		return nil, nil, domain.ErrNoTargetsSelected
	}

	bc := domain.NewBuildContext(reg, domain.BuildOptions{
		Prefix:    req.Manifest.Prefix,
		WorkDir:   req.Manifest.WorkDir,
		Platform:  req.Platform,
		Jobs:      req.Jobs,
		NonFree:   req.NonFree,
		Requested: requested,
	})

	for _, name := range bc.TargetNames() {
		t, _ := bc.Target(name)
		call := &hooks.Call{BuildContext: bc, Target: t, Dir: bc.SourceDir(t), Logger: o.logger}
		if err := o.hooks.Fire(ctx, hooks.PhasePreDependency, call); err != nil {
			return nil, nil, err
		}
	}

	order, err := domain.ResolveOrder(bc.Target, requested, func(name string) bool {
		return o.ledger.IsBuilt(bc.WorkDir, name)
	})
	if err != nil {
		return nil, nil, err
	}

	return bc, order, nil
}

// buildTarget runs one target inside its own span.
func (o *Orchestrator) buildTarget(ctx context.Context, bc *domain.BuildContext, t *domain.Target) error {
	ctx, span := o.tracer.Start(ctx, t.Name)
	defer span.End()
	defer bc.Env.ResetOverrides()

	if o.ledger.IsBuilt(bc.WorkDir, t.Name) {
		span.SetAttribute(ports.AttrCached, true)
		return nil
	}

	if err := o.runPipeline(ctx, bc, t, span); err != nil {
		err = zerr.With(err, "target", t.Name)
		span.RecordError(err)
		return err
	}

	if err := o.ledger.MarkBuilt(bc.WorkDir, t.Name); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (o *Orchestrator) runPipeline(ctx context.Context, bc *domain.BuildContext, t *domain.Target, out ports.Span) error {
	call := &hooks.Call{
		BuildContext: bc,
		Target:       t,
		Dir:          bc.SourceDir(t),
		Runner:       runner.New(o.executor, bc.Env, out),
		Logger:       o.logger,
	}

	if err := o.phase(ctx, PhaseDownload, call, func(ctx context.Context) error {
		if _, err := o.downloads.Fetch(ctx, t.Download, bc.ArchiveDir(t.Download)); err != nil {
			return err
		}
		return o.hooks.Fire(ctx, hooks.PhasePostDownload, call)
	}); err != nil {
		return err
	}

	var standard bool
	if err := o.phase(ctx, PhaseConfigure, call, func(ctx context.Context) error {
		if err := o.hooks.Fire(ctx, hooks.PhasePreConfigure, call); err != nil {
			return err
		}
		var err error
		if standard, err = o.dispatcher.Configure(ctx, call); err != nil {
			return err
		}
		return o.hooks.Fire(ctx, hooks.PhasePostConfigure, call)
	}); err != nil {
		return err
	}

	if standard {
		if err := o.phase(ctx, PhaseBuild, call, func(ctx context.Context) error {
			return configure.Build(ctx, call)
		}); err != nil {
			return err
		}
		if err := o.phase(ctx, PhaseInstall, call, func(ctx context.Context) error {
			return configure.Install(ctx, call)
		}); err != nil {
			return err
		}
	}

	return o.hooks.Fire(ctx, hooks.PhasePostInstall, call)
}

// phase runs fn inside a phase span whose writer receives command output.
func (o *Orchestrator) phase(ctx context.Context, name string, call *hooks.Call, fn func(context.Context) error) error {
	ctx, span := o.tracer.Start(ctx, name, ports.AsPhase())
	defer span.End()

	prev := call.Runner
	call.Runner = runner.New(o.executor, call.BuildContext.Env, span)
	defer func() { call.Runner = prev }()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
