// Package toolcheck locates external build tools on the host PATH.
package toolcheck

import (
	"os/exec"

	"go.trai.ch/kiln/internal/core/ports"
)

// Finder implements ports.ToolFinder with exec.LookPath.
type Finder struct{}

var _ ports.ToolFinder = (*Finder)(nil)

// NewFinder creates a new Finder.
func NewFinder() *Finder {
	return &Finder{}
}

// LookPath returns the resolved path of the named executable.
func (f *Finder) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
