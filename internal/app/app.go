// Package app implements the application layer for kiln.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"go.trai.ch/kiln/internal/adapters/detector"
	"go.trai.ch/kiln/internal/adapters/linear"
	"go.trai.ch/kiln/internal/adapters/platform"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/configure"
	"go.trai.ch/kiln/internal/engine/download"
	"go.trai.ch/kiln/internal/engine/orchestrator"
	"go.trai.ch/kiln/internal/recipes"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	executor     ports.Executor
	logger       ports.Logger
	ledger       ports.Ledger
	fetcher      ports.Fetcher
	extractor    ports.Extractor
	tools        ports.ToolFinder

	stdout       io.Writer
	stderr       io.Writer
	platform     func() (domain.OS, error)
	downloadOpts []download.Option
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	executor ports.Executor,
	log ports.Logger,
	ledger ports.Ledger,
	fetcher ports.Fetcher,
	extractor ports.Extractor,
	tools ports.ToolFinder,
) *App {
	return &App{
		configLoader: loader,
		executor:     executor,
		logger:       log,
		ledger:       ledger,
		fetcher:      fetcher,
		extractor:    extractor,
		tools:        tools,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		platform:     platform.Detect,
	}
}

// WithOutput redirects the renderer and listing output.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// WithPlatform pins the operating system instead of detecting it.
func (a *App) WithPlatform(host domain.OS) *App {
	a.platform = func() (domain.OS, error) { return host, nil }
	return a
}

// WithDownloadOptions configures the download manager, e.g. to shorten the retry delay in tests.
func (a *App) WithDownloadOptions(opts ...download.Option) *App {
	a.downloadOpts = append(a.downloadOpts, opts...)
	return a
}

// Selection names the targets of a run.
type Selection struct {
	// ConfigPath points at a registry file. Empty means discovery from the working directory.
	ConfigPath string
	// Targets are the requested targets. Empty means the registry defaults.
	Targets []string
	// Exclude removes targets from the request.
	Exclude []string
}

// BuildOptions configuration for the Build method.
type BuildOptions struct {
	Selection
	Jobs       int
	NonFree    bool
	OutputMode string
}

// Build builds the selected targets and their missing dependencies.
func (a *App) Build(ctx context.Context, opts BuildOptions) error {
	manifest, targets, err := a.load(opts.Selection)
	if err != nil {
		return err
	}

	host, err := a.platform()
	if err != nil {
		return err
	}

	mode := detector.ResolveMode(detector.DetectEnvironment(), opts.OutputMode)
	renderer := linear.NewRenderer(a.stdout, a.stderr, linear.WithQuiet(mode == detector.ModeQuiet))

	shutdown := telemetry.Setup(renderer)
	defer func() {
		_ = shutdown(context.Background())
	}()
	tracer := telemetry.NewOTelTracer("kiln").WithRenderer(renderer)

	orch := a.orchestrator(tracer)
	req := orchestrator.Request{
		Manifest: manifest,
		Targets:  targets,
		Platform: host,
		Jobs:     platform.Jobs(opts.Jobs),
		NonFree:  opts.NonFree,
	}

	if opts.NonFree {
		a.logger.Warn("Non-free mode: the resulting build cannot be redistributed")
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := renderer.Start(ctx); err != nil {
			return err
		}
		return renderer.Wait()
	})

	g.Go(func() error {
		defer func() {
			_ = renderer.Stop()
		}()

		if err := orch.Build(ctx, req); err != nil {
			return errors.Join(domain.ErrBuildExecutionFailed, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if slices.Contains(targets, "ffmpeg") {
		a.logger.Info(fmt.Sprintf("Finished: %s", filepath.Join(domain.BinDir(manifest.Prefix), "ffmpeg")))
	}
	return nil
}

// Plan prints the build sequence for the selected targets.
func (a *App) Plan(ctx context.Context, opts BuildOptions) error {
	manifest, targets, err := a.load(opts.Selection)
	if err != nil {
		return err
	}

	host, err := a.platform()
	if err != nil {
		return err
	}

	entries, err := a.orchestrator(nil).Plan(ctx, orchestrator.Request{
		Manifest: manifest,
		Targets:  targets,
		Platform: host,
		Jobs:     platform.Jobs(opts.Jobs),
		NonFree:  opts.NonFree,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	for i, e := range entries {
		status := "pending"
		if e.Cached {
			status = "cached"
		}
		_, _ = fmt.Fprintf(w, "%d.\t%s\t%s\n", i+1, e.Name, status)
	}
	return w.Flush()
}

// Targets prints every registry target with its strategy and dependencies.
func (a *App) Targets(_ context.Context, configPath string) error {
	manifest, err := a.loadManifest(configPath)
	if err != nil {
		return err
	}

	reg := manifest.Registry
	defaults := reg.Defaults()

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TARGET\tSTRATEGY\tDEFAULT\tDEPENDS ON")
	for _, name := range reg.Names() {
		t, _ := reg.Get(name)
		def := "no"
		if slices.Contains(defaults, name) {
			def = "yes"
		}
		deps := "-"
		if len(t.Dependencies) > 0 {
			deps = strings.Join(t.Dependencies, ", ")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, t.Strategy, def, deps)
	}
	return w.Flush()
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	ConfigPath string
	// LedgerOnly forgets which targets were built but keeps downloads and the prefix.
	LedgerOnly bool
}

// Clean removes the installation prefix and the working area.
// Removal is best-effort: failures are logged and do not abort the rest.
func (a *App) Clean(_ context.Context, options CleanOptions) error {
	manifest, err := a.loadManifest(options.ConfigPath)
	if err != nil {
		return err
	}

	if options.LedgerOnly {
		a.logger.Info("removing build markers...")
		if err := a.ledger.Reset(manifest.WorkDir); err != nil {
			a.logger.Error(err)
			return nil
		}
		a.logger.Info("removed build markers")
		return nil
	}

	remove := func(path string, name string) {
		a.logger.Info(fmt.Sprintf("removing %s...", name))
		if err := os.RemoveAll(path); err != nil {
			a.logger.Error(zerr.With(zerr.Wrap(err, fmt.Sprintf("failed to remove %s", name)), "path", path))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	remove(manifest.Prefix, "installation prefix")
	remove(manifest.WorkDir, "working area")
	return nil
}

func (a *App) orchestrator(tracer ports.Tracer) *orchestrator.Orchestrator {
	downloads := download.NewManager(a.fetcher, a.extractor, a.logger, a.downloadOpts...)
	return orchestrator.New(
		a.executor,
		a.ledger,
		a.tools,
		tracer,
		a.logger,
		downloads,
		configure.NewDispatcher(recipes.CustomBuilds()),
		recipes.Hooks(),
	)
}

func (a *App) loadManifest(configPath string) (*domain.Manifest, error) {
	var (
		manifest *domain.Manifest
		err      error
	)
	if configPath != "" {
		manifest, err = a.configLoader.LoadFile(configPath)
	} else {
		var cwd string
		cwd, err = os.Getwd()
		if err != nil {
			return nil, zerr.Wrap(err, "failed to get working directory")
		}
		manifest, err = a.configLoader.Load(cwd)
	}
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return manifest, nil
}

// load reads the configuration and applies defaults and exclusions to the requested targets.
func (a *App) load(sel Selection) (*domain.Manifest, []string, error) {
	manifest, err := a.loadManifest(sel.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	requested := sel.Targets
	if len(requested) == 0 {
		requested = manifest.Registry.Defaults()
	}

	targets := make([]string, 0, len(requested))
	for _, name := range requested {
		if !slices.Contains(sel.Exclude, name) {
			targets = append(targets, name)
		}
	}
	if len(targets) == 0 {
		return nil, nil, domain.ErrNoTargetsSelected
	}
	return manifest, targets, nil
}
