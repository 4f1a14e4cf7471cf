package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// TargetLookup resolves a target name to its definition.
type TargetLookup func(name string) (*Target, bool)

// ResolveOrder expands the requested targets into a build sequence.
//
// The sequence is the depth-first post-order of first encounter: every
// dependency precedes its dependent and every target appears once.
// Dependencies for which isBuilt reports true are not visited. Requested
// targets are always part of the sequence, built or not.
func ResolveOrder(lookup TargetLookup, requested []string, isBuilt func(string) bool) ([]string, error) {
	r := &resolver{
		lookup:    lookup,
		isBuilt:   isBuilt,
		visited:   make(map[string]bool),
		resolving: make(map[string]bool),
	}

	for _, name := range requested {
		if err := r.visit(name); err != nil {
			return nil, err
		}
	}

	return r.order, nil
}

type resolver struct {
	lookup    TargetLookup
	isBuilt   func(string) bool
	visited   map[string]bool
	resolving map[string]bool
	path      []string
	order     []string
}

func (r *resolver) visit(name string) error {
	if r.visited[name] {
		return nil
	}
	if r.resolving[name] {
		return r.cycleError(name)
	}

	t, ok := r.lookup(name)
	if !ok {
		if len(r.path) > 0 {
			return zerr.With(zerr.With(ErrMissingDependency, "target", r.path[len(r.path)-1]), "missing_dependency", name)
		}
		return zerr.With(ErrTargetNotFound, "target", name)
	}

	r.resolving[name] = true
	r.path = append(r.path, name)

	for _, dep := range t.Dependencies {
		if r.visited[dep] || r.isBuilt(dep) {
			continue
		}
		if err := r.visit(dep); err != nil {
			return err
		}
	}

	r.path = r.path[:len(r.path)-1]
	delete(r.resolving, name)
	r.visited[name] = true
	r.order = append(r.order, name)
	return nil
}

// cycleError constructs an error with the cycle path as metadata.
func (r *resolver) cycleError(name string) error {
	start := 0
	for i, node := range r.path {
		if node == name {
			start = i
			break
		}
	}
	cycle := append(append([]string{}, r.path[start:]...), name)
	return zerr.With(ErrCycleDetected, "cycle", strings.Join(cycle, " -> "))
}
