// Package configure dispatches a target to its configuration strategy.
package configure

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"go.trai.ch/kiln/internal/adapters/platform"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/hooks"
	"go.trai.ch/zerr"
)

// MesonBuildDir is the out-of-tree directory meson configures into.
const MesonBuildDir = "build"

// Dispatcher runs the configuration step of a target.
type Dispatcher struct {
	custom map[string]hooks.Func
}

// NewDispatcher creates a Dispatcher. custom maps target names to the build
// sequences of targets using the custom strategy.
func NewDispatcher(custom map[string]hooks.Func) *Dispatcher {
	return &Dispatcher{custom: custom}
}

// Configure runs the strategy of call.Target in call.Dir.
// It reports whether the standard make and make install phase must follow.
func (d *Dispatcher) Configure(ctx context.Context, call *hooks.Call) (bool, error) {
	switch call.Target.Strategy {
	case domain.StrategyAutotools, "":
		return true, Autotools(ctx, call)
	case domain.StrategyCMake:
		return true, CMake(ctx, call)
	case domain.StrategyMeson:
		return false, Meson(ctx, call)
	case domain.StrategyCustom:
		build, ok := d.custom[call.Target.Name]
		if !ok {
			return false, zerr.With(domain.ErrUnknownCustomBuild, "target", call.Target.Name)
		}
		return false, build(ctx, call)
	default:
		return false, zerr.With(zerr.With(domain.ErrUnknownStrategy, "strategy", string(call.Target.Strategy)), "target", call.Target.Name)
	}
}

// Autotools runs ./configure with the toolchain form of the prefix followed by the target options.
func Autotools(ctx context.Context, call *hooks.Call) error {
	bc := call.BuildContext
	prefix, err := platform.ToolchainPath(bc.Platform, bc.Prefix)
	if err != nil {
		return err
	}

	script := filepath.Join(call.Dir, "configure")
	if err := os.Chmod(script, domain.ExecPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to make configure script executable"), "path", script)
	}

	args := []string{"./configure", "--prefix=" + prefix}
	if bc.Platform == domain.OSWindows {
		args = append([]string{"bash"}, args...)
	}
	args = append(args, call.Target.Options...)

	return call.Runner.Run(ctx, domain.NewCommand(call.Dir, args...))
}

// CMake generates makefiles installing into the prefix.
func CMake(ctx context.Context, call *hooks.Call) error {
	bc := call.BuildContext

	args := []string{"cmake"}
	if bc.Platform == domain.OSWindows {
		args = append(args, "-G", "MSYS Makefiles")
	}
	args = append(args, "-DCMAKE_INSTALL_PREFIX:PATH="+bc.Prefix)
	args = append(args, call.Target.Options...)

	return call.Runner.Run(ctx, domain.NewCommand(call.Dir, args...))
}

// Meson configures into MesonBuildDir and installs with ninja.
func Meson(ctx context.Context, call *hooks.Call) error {
	bc := call.BuildContext
	prefix, err := platform.ToolchainPath(bc.Platform, bc.Prefix)
	if err != nil {
		return err
	}

	setup := append([]string{"meson", "setup", MesonBuildDir, "--prefix=" + prefix}, call.Target.Options...)
	if err := call.Runner.Run(ctx, domain.NewCommand(call.Dir, setup...)); err != nil {
		return err
	}

	return call.Runner.Run(ctx, domain.NewCommand(call.Dir,
		"ninja", "-C", MesonBuildDir, "-j", strconv.Itoa(bc.Jobs), "install"))
}

// Build runs make with the job count of the run. Extra arguments are appended.
func Build(ctx context.Context, call *hooks.Call, extra ...string) error {
	args := append([]string{"make", "-j", strconv.Itoa(call.BuildContext.Jobs)}, extra...)
	return call.Runner.Run(ctx, domain.NewCommand(call.Dir, args...))
}

// Install runs make install. Extra arguments are appended.
func Install(ctx context.Context, call *hooks.Call, extra ...string) error {
	args := append([]string{"make", "install"}, extra...)
	return call.Runner.Run(ctx, domain.NewCommand(call.Dir, args...))
}

// Standard runs Build followed by Install.
func Standard(ctx context.Context, call *hooks.Call) error {
	if err := Build(ctx, call); err != nil {
		return err
	}
	return Install(ctx, call)
}
