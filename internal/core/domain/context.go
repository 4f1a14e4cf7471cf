package domain

import (
	"path/filepath"
	"slices"
)

// BuildOptions are the inputs a run is created from.
type BuildOptions struct {
	Prefix    string
	WorkDir   string
	Platform  OS
	Jobs      int
	NonFree   bool
	Requested []string
}

// BuildContext is the mutable state shared by all phases of one run.
// It owns a private copy of every registry target, so hooks may rewrite
// options and dependencies without touching the registry.
type BuildContext struct {
	Prefix   string
	WorkDir  string
	Platform OS
	Jobs     int
	NonFree  bool
	Env      *Environment

	requested []string
	selected  map[string]struct{}
	targets   map[string]*Target
}

// NewBuildContext copies the registry targets and seeds the environment overlay
// with the installation prefix.
func NewBuildContext(reg *Registry, opts BuildOptions) *BuildContext {
	bc := &BuildContext{
		Prefix:    opts.Prefix,
		WorkDir:   opts.WorkDir,
		Platform:  opts.Platform,
		Jobs:      opts.Jobs,
		NonFree:   opts.NonFree,
		Env:       NewEnvironment(),
		requested: slices.Clone(opts.Requested),
		selected:  make(map[string]struct{}, len(opts.Requested)),
		targets:   make(map[string]*Target, reg.Len()),
	}

	for _, name := range opts.Requested {
		bc.selected[name] = struct{}{}
	}
	for _, name := range reg.Names() {
		t, _ := reg.Get(name)
		bc.targets[name] = t.Clone()
	}

	pkgConfig := PkgConfigDir(opts.Prefix)
	bc.Env.PrependPath(BinDir(opts.Prefix))
	bc.Env.Set("CFLAGS", "-I"+IncludeDir(opts.Prefix))
	bc.Env.Set("LDFLAGS", "-L"+LibDir(opts.Prefix)+" -lm")
	bc.Env.Set("PKG_CONFIG_PATH", pkgConfig)
	bc.Env.Set("PKG_CONFIG_LIBDIR", pkgConfig)

	return bc
}

// Target returns the run's copy of a target.
func (bc *BuildContext) Target(name string) (*Target, bool) {
	t, ok := bc.targets[name]
	return t, ok
}

// TargetNames returns the names of every target copy, sorted.
func (bc *BuildContext) TargetNames() []string {
	names := make([]string, 0, len(bc.targets))
	for name := range bc.targets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Requested returns the targets the user asked for, in order.
func (bc *BuildContext) Requested() []string {
	return slices.Clone(bc.requested)
}

// IsSelected reports whether a target was requested for this run.
func (bc *BuildContext) IsSelected(name string) bool {
	_, ok := bc.selected[name]
	return ok
}

// SourceDir returns the absolute directory a target is configured and built in.
func (bc *BuildContext) SourceDir(t *Target) string {
	return filepath.Join(bc.WorkDir, t.RelativeDir())
}

// ArchiveDir returns the directory a download is stored in and extracted into.
func (bc *BuildContext) ArchiveDir(d Download) string {
	if d.Dir == "" {
		return bc.WorkDir
	}
	return filepath.Join(bc.WorkDir, d.Dir)
}
