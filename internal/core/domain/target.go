// Package domain contains the core build model: targets, the registry and per-run state.
package domain

import (
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Strategy is the family of build-configuration tooling a target uses.
type Strategy string

const (
	// StrategyAutotools runs a POSIX ./configure script.
	StrategyAutotools Strategy = "autotools"
	// StrategyCMake runs cmake with an install prefix definition.
	StrategyCMake Strategy = "cmake"
	// StrategyMeson runs meson setup followed by its own build and install.
	StrategyMeson Strategy = "meson"
	// StrategyCustom runs a bespoke build sequence registered for the target.
	StrategyCustom Strategy = "custom"
)

// ParseStrategy converts a strategy tag into a Strategy. An empty tag means autotools.
func ParseStrategy(tag string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(tag))) {
	case "", StrategyAutotools:
		return StrategyAutotools, nil
	case StrategyCMake:
		return StrategyCMake, nil
	case StrategyMeson:
		return StrategyMeson, nil
	case StrategyCustom:
		return StrategyCustom, nil
	default:
		return "", zerr.With(ErrUnknownStrategy, "strategy", tag)
	}
}

// Download describes where a target's source archive comes from and where it lands.
type Download struct {
	// URL is the remote location of the archive.
	URL string
	// Filename is the name the archive is stored under. Its suffix selects the extractor.
	Filename string
	// Dir is an optional subdirectory of the working area used instead of the working area itself.
	Dir string
}

// Target is one buildable unit.
type Target struct {
	Name         string
	Download     Download
	Folder       []string
	Strategy     Strategy
	Options      []string
	Dependencies []string
	// Platforms restricts the target to the listed operating systems. Empty means all.
	Platforms []OS
}

var validTargetName = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateTargetName checks that a target name is usable as a marker filename.
func ValidateTargetName(name string) error {
	if !validTargetName.MatchString(name) {
		return zerr.With(ErrInvalidTargetName, "target", name)
	}
	return nil
}

// Validate reports whether the target has everything the orchestrator needs.
func (t *Target) Validate() error {
	if err := ValidateTargetName(t.Name); err != nil {
		return err
	}
	if t.Download.URL == "" {
		return zerr.With(zerr.With(ErrInvalidTarget, "target", t.Name), "missing", "download.url")
	}
	if t.Download.Filename == "" {
		return zerr.With(zerr.With(ErrInvalidTarget, "target", t.Name), "missing", "download.filename")
	}
	if len(t.Folder) == 0 {
		return zerr.With(zerr.With(ErrInvalidTarget, "target", t.Name), "missing", "folder")
	}
	return nil
}

// Clone returns a deep copy so per-run mutations never reach the registry.
func (t *Target) Clone() *Target {
	c := *t
	c.Folder = slices.Clone(t.Folder)
	c.Options = slices.Clone(t.Options)
	c.Dependencies = slices.Clone(t.Dependencies)
	c.Platforms = slices.Clone(t.Platforms)
	return &c
}

// AppliesTo reports whether the target is built on the given operating system.
func (t *Target) AppliesTo(os OS) bool {
	return len(t.Platforms) == 0 || slices.Contains(t.Platforms, os)
}

// AddOptions appends configuration options.
func (t *Target) AddOptions(opts ...string) {
	t.Options = append(t.Options, opts...)
}

// AddDependency appends a dependency unless it is already declared.
func (t *Target) AddDependency(name string) {
	if !slices.Contains(t.Dependencies, name) {
		t.Dependencies = append(t.Dependencies, name)
	}
}

// RelativeDir returns the source directory relative to the working area.
func (t *Target) RelativeDir() string {
	return filepath.Join(t.Folder...)
}
