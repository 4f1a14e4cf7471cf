package recipes

import (
	"context"
	"os"
	"path/filepath"
	"regexp"

	"go.trai.ch/kiln/internal/adapters/platform"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/hooks"
	"go.trai.ch/zerr"
)

const cmakeTarget = "cmake"

var jniPathLookup = regexp.MustCompile(`get_filename_component.JNIPATH`)

// Hooks returns the adaptations the built-in targets need around the generic phases.
func Hooks() hooks.Table {
	return hooks.Table{
		"libvpx":     {PreConfigure: patchLibvpxForDarwin},
		"lame":       {PostConfigure: makeInstallScriptExecutable},
		"opus":       {PreConfigure: protectOpusStack},
		"xvidcore":   {PostInstall: removeXvidDylib},
		"x264":       {PreConfigure: addX264PIC},
		"libvorbis":  {PreConfigure: pointVorbisAtOgg},
		"libtheora":  {PreConfigure: prepareTheora},
		"pkg-config": {PreConfigure: setPkgConfigSearchPath},
		cmakeTarget:  {PreConfigure: dropCMakeJava},
		"vid_stab":   {PreDependency: afterSelectedCMake},
		"x265": {
			PreDependency: afterSelectedCMake,
			PostInstall:   linkX265AgainstStdlib,
		},
		"av1": {
			PreDependency: afterSelectedCMake,
			PostDownload:  createOutOfTreeDir,
			PreConfigure:  pointAV1AtSources,
		},
		ffmpegTarget: {
			PreDependency: dependOnSelectedLibraries,
			PreConfigure:  configureFFmpeg,
		},
	}
}

func toolchainPrefix(bc *domain.BuildContext) (string, error) {
	return platform.ToolchainPath(bc.Platform, bc.Prefix)
}

// afterSelectedCMake builds cmake-based targets with the bundled cmake when it is part of the run.
func afterSelectedCMake(_ context.Context, call *hooks.Call) error {
	if call.BuildContext.IsSelected(cmakeTarget) {
		call.Target.AddDependency(cmakeTarget)
	}
	return nil
}

func dependOnSelectedLibraries(_ context.Context, call *hooks.Call) error {
	for _, dep := range ffmpegDependencies(call.BuildContext) {
		call.Target.AddDependency(dep)
	}
	return nil
}

func createOutOfTreeDir(_ context.Context, call *hooks.Call) error {
	if err := os.MkdirAll(call.Dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrDirectoryCreateFailed.Error()), "path", call.Dir)
	}
	return nil
}

// pointAV1AtSources configures the out-of-tree build directory from the extracted sources.
func pointAV1AtSources(_ context.Context, call *hooks.Call) error {
	call.Target.AddOptions(call.BuildContext.ArchiveDir(call.Target.Download))
	return nil
}

func setPkgConfigSearchPath(_ context.Context, call *hooks.Call) error {
	prefix, err := toolchainPrefix(call.BuildContext)
	if err != nil {
		return err
	}
	call.Target.AddOptions("--with-pc-path=" + prefix + "/lib/pkgconfig")
	return nil
}

func patchLibvpxForDarwin(_ context.Context, call *hooks.Call) error {
	if call.BuildContext.Platform != domain.OSDarwin {
		return nil
	}
	call.Logger.Info("Patching libvpx for macOS")
	return PatchFile(filepath.Join(call.Dir, "build", "make", "Makefile"),
		Replacement{Old: ",--version-script", New: ""},
		Replacement{Old: "-Wl,--no-undefined -Wl,-soname", New: "-Wl,-undefined,error -Wl,-install_name"},
	)
}

// protectOpusStack links libssp on MinGW, whose fortified functions need it.
func protectOpusStack(_ context.Context, call *hooks.Call) error {
	bc := call.BuildContext
	if bc.Platform != domain.OSWindows {
		return nil
	}
	ldflags, _ := bc.Env.Get("LDFLAGS")
	bc.Env.Override("LDFLAGS", ldflags+" -fstack-protector")
	return nil
}

func addX264PIC(_ context.Context, call *hooks.Call) error {
	if call.BuildContext.Platform == domain.OSLinux {
		call.Target.AddOptions("CXXFLAGS=-fPIC")
	}
	return nil
}

func pointVorbisAtOgg(_ context.Context, call *hooks.Call) error {
	prefix, err := toolchainPrefix(call.BuildContext)
	if err != nil {
		return err
	}
	call.Target.AddOptions(
		"--with-ogg-libraries="+prefix+"/lib",
		"--with-ogg-includes="+prefix+"/include",
	)
	return nil
}

func prepareTheora(_ context.Context, call *hooks.Call) error {
	prefix, err := toolchainPrefix(call.BuildContext)
	if err != nil {
		return err
	}

	call.Logger.Info("Removing -fforce-addr from configure")
	if err := PatchFile(filepath.Join(call.Dir, "configure"), Replacement{Old: "-fforce-addr", New: ""}); err != nil {
		return err
	}

	call.Target.AddOptions(
		"--with-ogg-libraries="+prefix+"/lib",
		"--with-ogg-includes="+prefix+"/include/",
		"--with-vorbis-libraries="+prefix+"/lib",
		"--with-vorbis-includes="+prefix+"/include/",
	)
	return nil
}

func dropCMakeJava(_ context.Context, call *hooks.Call) error {
	if err := removeIfExists(filepath.Join(call.Dir, "Modules", "FindJava.cmake")); err != nil {
		return err
	}
	return PatchFileRegexp(filepath.Join(call.Dir, "Tests", "CMakeLists.txt"), jniPathLookup, "#get_filename_component(JNIPATH")
}

func configureFFmpeg(_ context.Context, call *hooks.Call) error {
	bc := call.BuildContext

	opts, err := FFmpegOptions(bc)
	if err != nil {
		return err
	}
	call.Target.AddOptions(opts...)

	prefix, err := toolchainPrefix(bc)
	if err != nil {
		return err
	}
	bc.Env.Override("PKG_CONFIG_PATH", prefix+"/lib/pkgconfig")

	if bc.NonFree {
		call.Logger.Warn("Linking non-free components, the resulting ffmpeg build cannot be redistributed")
	} else {
		call.Logger.Info("Applying free replacements for non-free components")
	}
	return nil
}

func makeInstallScriptExecutable(_ context.Context, call *hooks.Call) error {
	script := filepath.Join(call.Dir, "install-sh")
	if err := os.Chmod(script, domain.ExecPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPatchFailed.Error()), "path", script)
	}
	return nil
}

func linkX265AgainstStdlib(_ context.Context, call *hooks.Call) error {
	pc := filepath.Join(domain.PkgConfigDir(call.BuildContext.Prefix), "x265.pc")
	return PatchFile(pc, Replacement{Old: "-lx265", New: "-lx265 -lstdc++"})
}

// removeXvidDylib keeps ffmpeg from linking the shared xvidcore on macOS.
func removeXvidDylib(_ context.Context, call *hooks.Call) error {
	return removeIfExists(filepath.Join(domain.LibDir(call.BuildContext.Prefix), "libxvidcore.4.dylib"))
}
