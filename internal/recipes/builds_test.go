package recipes_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/recipes"
)

func TestCustomBuilds_OpenSSL(t *testing.T) {
	rc := newRunContext(t, domain.OSLinux, false, "openssl")
	prefix := rc.bc.Prefix

	require.NoError(t, recipes.CustomBuilds()["openssl"](t.Context(), rc.call(t, "openssl")))
	assert.Equal(t, [][]string{
		{
			"bash", "./config",
			"--prefix=" + prefix,
			"--openssldir=" + prefix,
			"--with-zlib-include=" + prefix + "/include/",
			"--with-zlib-lib=" + prefix + "/lib",
			"no-shared", "zlib",
		},
		{"make", "-j", "4"},
		{"make", "install"},
	}, rc.runner.args())
}

func TestCustomBuilds_ZlibPosix(t *testing.T) {
	rc := newRunContext(t, domain.OSLinux, false, "zlib")
	call := rc.call(t, "zlib")
	writeFile(t, filepath.Join(call.Dir, "configure"), "#!/bin/sh\n")

	require.NoError(t, recipes.CustomBuilds()["zlib"](t.Context(), call))
	assert.Equal(t, [][]string{
		{"./configure", "--prefix=" + rc.bc.Prefix},
		{"make", "-j", "4"},
		{"make", "install"},
	}, rc.runner.args())
}

func TestCustomBuilds_ZlibWindows(t *testing.T) {
	bc := domain.NewBuildContext(builtinRegistry(t), domain.BuildOptions{
		Prefix:    `C:\build\release`,
		WorkDir:   `C:\build\targets`,
		Platform:  domain.OSWindows,
		Jobs:      2,
		Requested: []string{"zlib"},
	})
	rc := &runContext{bc: bc, runner: &recordingRunner{}}

	require.NoError(t, recipes.CustomBuilds()["zlib"](t.Context(), rc.call(t, "zlib")))
	assert.Equal(t, [][]string{
		{"make", "-j", "2", "-f", "./win32/Makefile.gcc"},
		{"make", "install", "-f", "./win32/Makefile.gcc"},
	}, rc.runner.args())

	for _, cmd := range rc.runner.commands {
		assert.Equal(t, map[string]string{
			"INCLUDE_PATH": domain.IncludeDir(bc.Prefix),
			"LIBRARY_PATH": domain.LibDir(bc.Prefix),
			"BINARY_PATH":  domain.BinDir(bc.Prefix),
		}, cmd.Env)
	}
}

func TestCustomBuilds_Msys2DepsCopiesIntoBin(t *testing.T) {
	rc := newRunContext(t, domain.OSWindows, false)
	call := rc.call(t, "ffmpeg-msys2-deps")

	writeFile(t, filepath.Join(call.Dir, "libwinpthread-1.dll"), "dll")
	writeFile(t, filepath.Join(call.Dir, "nested", "README"), "skip")

	require.NoError(t, recipes.CustomBuilds()["ffmpeg-msys2-deps"](context.Background(), call))

	bin := domain.BinDir(rc.bc.Prefix)
	assert.Equal(t, "dll", readFile(t, filepath.Join(bin, "libwinpthread-1.dll")))
	_, err := os.Stat(filepath.Join(bin, "nested"))
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, rc.runner.commands)
}

func TestCustomBuilds_CoverBuiltinRegistry(t *testing.T) {
	reg := builtinRegistry(t)
	builds := recipes.CustomBuilds()

	for _, name := range reg.Names() {
		target, _ := reg.Get(name)
		if target.Strategy == domain.StrategyCustom {
			assert.Contains(t, builds, name, "custom target %s has no build", name)
		}
	}
}

func TestHooks_ReferToBuiltinTargets(t *testing.T) {
	reg := builtinRegistry(t)

	for name := range recipes.Hooks() {
		_, ok := reg.Get(name)
		assert.True(t, ok, "hooks registered for unknown target %s", name)
	}
}
