package recipes

import (
	"go.trai.ch/kiln/internal/adapters/platform"
	"go.trai.ch/kiln/internal/core/domain"
)

const (
	ffmpegTarget = "ffmpeg"
	// msys2DepsTarget ships runtime DLLs next to the finished ffmpeg binary.
	msys2DepsTarget = "ffmpeg-msys2-deps"
)

// feature links a library target to the ffmpeg switches that enable it.
type feature struct {
	target  string
	options []string
}

// Feature providers in the order their switches appear on the ffmpeg command line.
var (
	codecFeatures = []feature{
		{"libvpx", []string{"--enable-libvpx"}},
		{"lame", []string{"--enable-libmp3lame"}},
		{"opus", []string{"--enable-libopus"}},
		{"libtheora", []string{"--enable-libtheora"}},
		{"libvorbis", []string{"--enable-libvorbis"}},
		{"x264", []string{"--enable-libx264"}},
		{"x265", []string{"--enable-libx265"}},
	}
	filterFeatures = []feature{
		{"opencore", []string{"--enable-libopencore_amrwb", "--enable-libopencore_amrnb"}},
	}
	lateFeatures = []feature{
		{"vid_stab", []string{"--enable-libvidstab"}},
		{"av1", []string{"--enable-libaom"}},
	}
	nonFreeFeatures = []feature{
		{"openssl", []string{"--enable-openssl"}},
		{"fdk_aac", []string{"--enable-libfdk-aac"}},
	}
)

// nonFreeTargets are only linked into ffmpeg in non-free mode.
var nonFreeTargets = map[string]bool{
	"openssl": true,
	"fdk_aac": true,
}

// FFmpegOptions derives the ffmpeg configure options from the selected targets,
// the licensing mode and the platform.
func FFmpegOptions(bc *domain.BuildContext) ([]string, error) {
	prefix, err := platform.ToolchainPath(bc.Platform, bc.Prefix)
	if err != nil {
		return nil, err
	}

	var opts []string
	if bc.Platform == domain.OSDarwin {
		opts = append(opts, "--enable-videotoolbox")
	}

	opts = append(opts,
		"--pkgconfigdir="+prefix+"/lib/pkgconfig",
		"--pkg-config-flags=--static",
		"--extra-cflags=-I"+prefix+"/include",
		"--extra-ldflags=-L"+prefix+"/lib",
		"--extra-ldflags=-fstack-protector",
		"--extra-libs=-lm",
		"--enable-static",
		"--disable-debug",
		"--disable-shared",
	)
	if bc.IsSelected("sdl") {
		opts = append(opts, "--enable-ffplay")
	}
	opts = append(opts, "--disable-doc", "--enable-gpl", "--enable-version3")
	opts = appendSelected(opts, bc, codecFeatures)
	opts = append(opts, "--enable-runtime-cpudetect", "--enable-avfilter")
	opts = appendSelected(opts, bc, filterFeatures)
	opts = append(opts, "--enable-filters")
	opts = appendSelected(opts, bc, lateFeatures)

	if bc.NonFree {
		opts = append(opts, "--enable-nonfree")
		opts = appendSelected(opts, bc, nonFreeFeatures)
	} else {
		opts = append(opts, "--enable-gnutls")
	}

	// MSYS2 cannot build ffmpeg with pthreads.
	if bc.Platform != domain.OSWindows {
		opts = append(opts, "--extra-libs=-lpthread", "--enable-pthreads")
	}

	return opts, nil
}

func appendSelected(opts []string, bc *domain.BuildContext, features []feature) []string {
	for _, f := range features {
		if bc.IsSelected(f.target) {
			opts = append(opts, f.options...)
		}
	}
	return opts
}

// ffmpegDependencies lists the selected targets ffmpeg must be built after.
// Non-free libraries are left out in free mode, as is anything that itself
// builds on ffmpeg.
func ffmpegDependencies(bc *domain.BuildContext) []string {
	var deps []string
	for _, name := range bc.Requested() {
		switch {
		case name == ffmpegTarget, name == msys2DepsTarget:
		case nonFreeTargets[name] && !bc.NonFree:
		default:
			if t, ok := bc.Target(name); ok && t.AppliesTo(bc.Platform) && !dependsOn(bc, name, ffmpegTarget) {
				deps = append(deps, name)
			}
		}
	}
	return deps
}

// dependsOn reports whether target reaches dep through declared dependencies.
func dependsOn(bc *domain.BuildContext, target, dep string) bool {
	seen := map[string]bool{}
	var walk func(string) bool
	walk = func(name string) bool {
		if seen[name] {
			return false
		}
		seen[name] = true
		t, ok := bc.Target(name)
		if !ok {
			return false
		}
		for _, d := range t.Dependencies {
			if d == dep || walk(d) {
				return true
			}
		}
		return false
	}
	return walk(target)
}
