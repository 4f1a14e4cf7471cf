// Package platform translates host conventions: operating system, job count
// and the path syntax expected by the toolchain.
package platform

import (
	"regexp"
	"runtime"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

var (
	// driveLetterPath matches "C:/x" and "C:\x".
	driveLetterPath = regexp.MustCompile(`^([A-Za-z]):[/\\](.*)$`)
	// msysPath matches "/c/x" and "/c".
	msysPath = regexp.MustCompile(`^/([A-Za-z])(/.*)?$`)
)

// ToolchainPath converts path into the form the build tools of os understand.
//
// On Windows the MSYS2 toolchain expects "/c/dir" style paths, so drive-letter
// paths are rewritten. Paths are returned unchanged on other systems.
func ToolchainPath(os domain.OS, path string) (string, error) {
	if os != domain.OSWindows {
		return path, nil
	}

	if m := driveLetterPath.FindStringSubmatch(path); m != nil {
		rest := strings.ReplaceAll(m[2], `\`, "/")
		return "/" + strings.ToLower(m[1]) + "/" + rest, nil
	}
	if m := msysPath.FindStringSubmatch(path); m != nil {
		return "/" + strings.ToLower(m[1]) + m[2], nil
	}

	return "", zerr.With(domain.ErrUnrecognizedPath, "path", path)
}

// Detect reports the operating system kiln runs on.
func Detect() (domain.OS, error) {
	return domain.ParseOS(runtime.GOOS)
}

// Jobs returns requested when positive, otherwise the number of CPUs.
func Jobs(requested int) int {
	if requested > 0 {
		return requested
	}
	return runtime.NumCPU()
}
