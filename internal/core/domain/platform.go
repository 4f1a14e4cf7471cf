package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// OS identifies the host operating system family a build runs on.
type OS string

const (
	// OSLinux is any Linux host.
	OSLinux OS = "linux"
	// OSDarwin is a macOS host.
	OSDarwin OS = "darwin"
	// OSWindows is a Windows host running an MSYS2-style toolchain.
	OSWindows OS = "windows"
)

// ParseOS converts a platform name into an OS.
func ParseOS(name string) (OS, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linux":
		return OSLinux, nil
	case "darwin", "macos", "mac":
		return OSDarwin, nil
	case "windows":
		return OSWindows, nil
	default:
		return "", zerr.With(ErrUnsupportedPlatform, "platform", name)
	}
}

// String returns the platform name.
func (o OS) String() string {
	return string(o)
}
