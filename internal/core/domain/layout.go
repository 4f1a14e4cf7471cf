package domain

import "path/filepath"

const (
	// ConfigFileName is the name of the registry configuration file.
	ConfigFileName = "kiln.yaml"

	// WorkDirName is the default name of the working area holding archives, sources and markers.
	WorkDirName = "targets"

	// PrefixDirName is the default name of the installation prefix.
	PrefixDirName = "release"

	// MarkerSuffix is appended to a target name to form its ledger marker file.
	MarkerSuffix = ".ok"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// ExecPerm is the permission applied to scripts that must be executable (rwxr-xr-x).
	ExecPerm = 0o755
)

// MarkerPath returns the ledger marker path for a target inside the working area.
func MarkerPath(workDir, target string) string {
	return filepath.Join(workDir, target+MarkerSuffix)
}

// BinDir returns the bin directory below an installation prefix.
func BinDir(prefix string) string {
	return filepath.Join(prefix, "bin")
}

// LibDir returns the lib directory below an installation prefix.
func LibDir(prefix string) string {
	return filepath.Join(prefix, "lib")
}

// IncludeDir returns the include directory below an installation prefix.
func IncludeDir(prefix string) string {
	return filepath.Join(prefix, "include")
}

// PkgConfigDir returns the pkg-config metadata directory below an installation prefix.
func PkgConfigDir(prefix string) string {
	return filepath.Join(prefix, "lib", "pkgconfig")
}
