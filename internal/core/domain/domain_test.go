package domain_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		tag     string
		want    domain.Strategy
		wantErr bool
	}{
		{tag: "", want: domain.StrategyAutotools},
		{tag: "autotools", want: domain.StrategyAutotools},
		{tag: "CMake", want: domain.StrategyCMake},
		{tag: "meson", want: domain.StrategyMeson},
		{tag: "custom", want: domain.StrategyCustom},
		{tag: "scons", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := domain.ParseStrategy(tt.tag)
			if tt.wantErr {
				assert.ErrorContains(t, err, domain.ErrUnknownStrategy.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOS(t *testing.T) {
	got, err := domain.ParseOS("macos")
	require.NoError(t, err)
	assert.Equal(t, domain.OSDarwin, got)

	_, err = domain.ParseOS("plan9")
	assert.ErrorContains(t, err, domain.ErrUnsupportedPlatform.Error())
}

func TestTarget_Clone(t *testing.T) {
	orig := &domain.Target{
		Name:         "libvorbis",
		Options:      []string{"--disable-shared"},
		Dependencies: []string{"libogg"},
		Folder:       []string{"libvorbis-1.3.6"},
	}

	c := orig.Clone()
	c.AddOptions("--disable-oggtest")
	c.AddDependency("pkg-config")
	c.Folder[0] = "changed"

	assert.Equal(t, []string{"--disable-shared"}, orig.Options)
	assert.Equal(t, []string{"libogg"}, orig.Dependencies)
	assert.Equal(t, []string{"libvorbis-1.3.6"}, orig.Folder)
	assert.Equal(t, []string{"--disable-shared", "--disable-oggtest"}, c.Options)
}

func TestTarget_AddDependencyIsIdempotent(t *testing.T) {
	tgt := &domain.Target{Name: "x265"}
	tgt.AddDependency("cmake")
	tgt.AddDependency("cmake")
	assert.Equal(t, []string{"cmake"}, tgt.Dependencies)
}

func TestTarget_AppliesTo(t *testing.T) {
	everywhere := &domain.Target{Name: "zlib"}
	winOnly := &domain.Target{Name: "ffmpeg-msys2-deps", Platforms: []domain.OS{domain.OSWindows}}

	assert.True(t, everywhere.AppliesTo(domain.OSLinux))
	assert.True(t, winOnly.AppliesTo(domain.OSWindows))
	assert.False(t, winOnly.AppliesTo(domain.OSDarwin))
}

func TestTarget_Validate(t *testing.T) {
	valid := &domain.Target{
		Name:     "yasm",
		Download: domain.Download{URL: "http://example.com/yasm.tar.gz", Filename: "yasm.tar.gz"},
		Folder:   []string{"yasm-1.3.0"},
	}
	require.NoError(t, valid.Validate())

	noFolder := valid.Clone()
	noFolder.Folder = nil
	assert.ErrorContains(t, noFolder.Validate(), domain.ErrInvalidTarget.Error())

	badName := valid.Clone()
	badName.Name = "yasm/../etc"
	assert.ErrorContains(t, badName.Validate(), domain.ErrInvalidTargetName.Error())
}

func TestRegistry(t *testing.T) {
	reg := domain.NewRegistry()
	require.NoError(t, reg.Add(&domain.Target{Name: "b", Dependencies: []string{"a"}}))
	require.NoError(t, reg.Add(&domain.Target{Name: "a"}))

	err := reg.Add(&domain.Target{Name: "a"})
	assert.ErrorContains(t, err, domain.ErrTargetAlreadyExists.Error())

	assert.Equal(t, []string{"a", "b"}, reg.Names())
	assert.Equal(t, []string{"a", "b"}, reg.Defaults(), "defaults fall back to all names")

	require.NoError(t, reg.SetDefaults([]string{"b", "a"}))
	assert.Equal(t, []string{"b", "a"}, reg.Defaults())

	assert.ErrorContains(t, reg.SetDefaults([]string{"c"}), domain.ErrTargetNotFound.Error())
	require.NoError(t, reg.Validate())

	require.NoError(t, reg.Add(&domain.Target{Name: "c", Dependencies: []string{"ghost"}}))
	assert.ErrorContains(t, reg.Validate(), domain.ErrMissingDependency.Error())
}

func TestNewBuildContext(t *testing.T) {
	reg := domain.NewRegistry()
	require.NoError(t, reg.Add(&domain.Target{
		Name:     "av1",
		Download: domain.Download{URL: "u", Filename: "av1.tar.gz", Dir: "av1"},
		Folder:   []string{"aom_build"},
		Options:  []string{"-DENABLE_TESTS=0"},
	}))

	prefix := filepath.Join("/work", "release")
	bc := domain.NewBuildContext(reg, domain.BuildOptions{
		Prefix:    prefix,
		WorkDir:   filepath.Join("/work", "targets"),
		Platform:  domain.OSLinux,
		Jobs:      4,
		Requested: []string{"av1"},
	})

	t.Run("environment overlay", func(t *testing.T) {
		cflags, _ := bc.Env.Get("CFLAGS")
		ldflags, _ := bc.Env.Get("LDFLAGS")
		pc, _ := bc.Env.Get("PKG_CONFIG_PATH")
		libdir, _ := bc.Env.Get("PKG_CONFIG_LIBDIR")

		assert.Equal(t, "-I"+filepath.Join(prefix, "include"), cflags)
		assert.Equal(t, "-L"+filepath.Join(prefix, "lib")+" -lm", ldflags)
		assert.Equal(t, filepath.Join(prefix, "lib", "pkgconfig"), pc)
		assert.Equal(t, pc, libdir)
		assert.Equal(t, []string{filepath.Join(prefix, "bin")}, bc.Env.Path())
	})

	t.Run("targets are private copies", func(t *testing.T) {
		copyTarget, ok := bc.Target("av1")
		require.True(t, ok)
		copyTarget.AddOptions("/work/targets/av1")

		orig, _ := reg.Get("av1")
		assert.Equal(t, []string{"-DENABLE_TESTS=0"}, orig.Options)
	})

	t.Run("paths", func(t *testing.T) {
		tgt, _ := bc.Target("av1")
		assert.Equal(t, filepath.Join("/work", "targets", "aom_build"), bc.SourceDir(tgt))
		assert.Equal(t, filepath.Join("/work", "targets", "av1"), bc.ArchiveDir(tgt.Download))
		assert.Equal(t, filepath.Join("/work", "targets"), bc.ArchiveDir(domain.Download{}))
	})

	t.Run("selection", func(t *testing.T) {
		assert.True(t, bc.IsSelected("av1"))
		assert.False(t, bc.IsSelected("x265"))
		assert.Equal(t, []string{"av1"}, bc.Requested())
	})
}

func TestEnvironment(t *testing.T) {
	env := domain.NewEnvironment()
	env.PrependPath("/opt/b")
	env.PrependPath("/opt/a")
	env.Set("LDFLAGS", "-L/lib")
	env.Set("CFLAGS", "-I/include")

	env.Override("LDFLAGS", "-L/lib -fstack-protector")
	v, _ := env.Get("LDFLAGS")
	assert.Equal(t, "-L/lib -fstack-protector", v)

	sep := string(os.PathListSeparator)
	assert.Equal(t, []string{
		"PATH=/opt/a" + sep + "/opt/b",
		"CFLAGS=-I/include",
		"LDFLAGS=-L/lib -fstack-protector",
	}, env.Entries())

	env.ResetOverrides()
	v, _ = env.Get("LDFLAGS")
	assert.Equal(t, "-L/lib", v)
	assert.False(t, strings.Contains(strings.Join(env.Entries(), " "), "stack-protector"))
}

func TestCommand_String(t *testing.T) {
	cmd := domain.NewCommand("/src", "make", "-j", "8").WithEnv("INCLUDE_PATH", "/inc")
	assert.Equal(t, "make -j 8", cmd.String())
	assert.Equal(t, "/inc", cmd.Env["INCLUDE_PATH"])
}

func TestMarkerPath(t *testing.T) {
	assert.Equal(t, filepath.Join("targets", "yasm.ok"), domain.MarkerPath("targets", "yasm"))
}
