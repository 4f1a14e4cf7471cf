package domain

import (
	"slices"

	"go.trai.ch/zerr"
)

// Registry is the read-only catalogue of targets available to a run.
type Registry struct {
	targets  map[string]*Target
	defaults []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		targets: make(map[string]*Target),
	}
}

// Add registers a target.
func (r *Registry) Add(t *Target) error {
	if _, exists := r.targets[t.Name]; exists {
		return zerr.With(ErrTargetAlreadyExists, "target", t.Name)
	}
	r.targets[t.Name] = t
	return nil
}

// Get returns the registered target with the given name.
func (r *Registry) Get(name string) (*Target, bool) {
	t, ok := r.targets[name]
	return t, ok
}

// Len returns the number of registered targets.
func (r *Registry) Len() int {
	return len(r.targets)
}

// Names returns all target names sorted alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.targets))
	for name := range r.targets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SetDefaults sets the ordered list of targets built when none are requested.
func (r *Registry) SetDefaults(names []string) error {
	for _, name := range names {
		if _, ok := r.targets[name]; !ok {
			return zerr.With(ErrTargetNotFound, "target", name)
		}
	}
	r.defaults = slices.Clone(names)
	return nil
}

// Defaults returns the default build list, falling back to every target by name.
func (r *Registry) Defaults() []string {
	if len(r.defaults) == 0 {
		return r.Names()
	}
	return slices.Clone(r.defaults)
}

// Validate checks that every declared dependency is registered.
func (r *Registry) Validate() error {
	for _, name := range r.Names() {
		for _, dep := range r.targets[name].Dependencies {
			if _, ok := r.targets[dep]; !ok {
				return zerr.With(zerr.With(ErrMissingDependency, "target", name), "missing_dependency", dep)
			}
		}
	}
	return nil
}

// Manifest is a loaded configuration: the registry plus the paths and tools a run uses.
type Manifest struct {
	// Root is the directory the configuration was loaded relative to.
	Root string
	// Prefix is the absolute installation prefix.
	Prefix string
	// WorkDir is the absolute working area.
	WorkDir string
	// Tools are the external commands that must exist before a build starts.
	Tools []string
	// Registry holds the available targets.
	Registry *Registry
}
