package recipes

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/configure"
	"go.trai.ch/kiln/internal/engine/hooks"
	"go.trai.ch/zerr"
)

// CustomBuilds returns the build sequences of targets using the custom strategy.
func CustomBuilds() map[string]hooks.Func {
	return map[string]hooks.Func{
		"openssl":       buildOpenSSL,
		"zlib":          buildZlib,
		msys2DepsTarget: installMsys2Deps,
	}
}

func buildOpenSSL(ctx context.Context, call *hooks.Call) error {
	prefix, err := toolchainPrefix(call.BuildContext)
	if err != nil {
		return err
	}

	config := domain.NewCommand(call.Dir,
		"bash", "./config",
		"--prefix="+prefix,
		"--openssldir="+prefix,
		"--with-zlib-include="+prefix+"/include/",
		"--with-zlib-lib="+prefix+"/lib",
		"no-shared",
		"zlib",
	)
	if err := call.Runner.Run(ctx, config); err != nil {
		return err
	}
	return configure.Standard(ctx, call)
}

// buildZlib uses the MinGW makefile on Windows, where ./configure refuses gcc.
func buildZlib(ctx context.Context, call *hooks.Call) error {
	bc := call.BuildContext
	if bc.Platform != domain.OSWindows {
		if err := configure.Autotools(ctx, call); err != nil {
			return err
		}
		return configure.Standard(ctx, call)
	}

	const makefile = "./win32/Makefile.gcc"
	withPaths := func(cmd *domain.Command) *domain.Command {
		return cmd.
			WithEnv("INCLUDE_PATH", domain.IncludeDir(bc.Prefix)).
			WithEnv("LIBRARY_PATH", domain.LibDir(bc.Prefix)).
			WithEnv("BINARY_PATH", domain.BinDir(bc.Prefix))
	}

	build := withPaths(domain.NewCommand(call.Dir, "make", "-j", strconv.Itoa(bc.Jobs), "-f", makefile))
	if err := call.Runner.Run(ctx, build); err != nil {
		return err
	}
	return call.Runner.Run(ctx, withPaths(domain.NewCommand(call.Dir, "make", "install", "-f", makefile)))
}

// installMsys2Deps copies the prebuilt runtime files into the prefix bin directory.
func installMsys2Deps(_ context.Context, call *hooks.Call) error {
	bin := domain.BinDir(call.BuildContext.Prefix)
	if err := os.MkdirAll(bin, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrDirectoryCreateFailed.Error()), "path", bin)
	}

	entries, err := os.ReadDir(call.Dir)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to list runtime files"), "path", call.Dir)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if err := copyFile(filepath.Join(call.Dir, entry.Name()), filepath.Join(bin, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src) //nolint:gosec // src is a file inside the working area
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open file"), "path", src)
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stat file"), "path", src)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()) //nolint:gosec // dst is inside the prefix
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create file"), "path", dst)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = zerr.With(zerr.Wrap(cerr, "failed to close file"), "path", dst)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to copy file"), "path", dst)
	}
	return nil
}
