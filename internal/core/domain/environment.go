package domain

import (
	"maps"
	"os"
	"slices"
	"strings"
)

// PathVar is the name of the executable search path variable.
const PathVar = "PATH"

// Environment is the overlay applied on top of the process environment for every command.
// PATH entries are prepended to the inherited PATH; every other variable replaces its inherited value.
// Overrides are transient and are discarded with ResetOverrides once a target finishes.
type Environment struct {
	vars      map[string]string
	path      []string
	overrides map[string]string
}

// NewEnvironment creates an empty overlay.
func NewEnvironment() *Environment {
	return &Environment{
		vars:      make(map[string]string),
		overrides: make(map[string]string),
	}
}

// Set assigns a variable for the rest of the run.
func (e *Environment) Set(key, value string) {
	e.vars[key] = value
}

// Get returns the effective value of a variable, transient overrides first.
func (e *Environment) Get(key string) (string, bool) {
	if v, ok := e.overrides[key]; ok {
		return v, true
	}
	v, ok := e.vars[key]
	return v, ok
}

// PrependPath puts dir in front of the executable search path.
func (e *Environment) PrependPath(dir string) {
	e.path = slices.Insert(e.path, 0, dir)
}

// Path returns the directories prepended to PATH, highest priority first.
func (e *Environment) Path() []string {
	return slices.Clone(e.path)
}

// Override sets a variable only until ResetOverrides is called.
func (e *Environment) Override(key, value string) {
	e.overrides[key] = value
}

// ResetOverrides drops all transient overrides.
func (e *Environment) ResetOverrides() {
	clear(e.overrides)
}

// Entries returns the overlay in KEY=VALUE form, sorted by key.
// The PATH entry only contains the prepended directories.
func (e *Environment) Entries() []string {
	merged := maps.Clone(e.vars)
	maps.Copy(merged, e.overrides)

	keys := slices.Sorted(maps.Keys(merged))
	entries := make([]string, 0, len(keys)+1)
	if len(e.path) > 0 {
		entries = append(entries, PathVar+"="+strings.Join(e.path, string(os.PathListSeparator)))
	}
	for _, k := range keys {
		if k == PathVar {
			continue
		}
		entries = append(entries, k+"="+merged[k])
	}
	return entries
}
