package domain

import "go.trai.ch/zerr"

var (
	// ErrTargetAlreadyExists is returned when a registry receives two targets with the same name.
	ErrTargetAlreadyExists = zerr.New("target already exists")

	// ErrTargetNotFound is returned when a requested target is not part of the registry.
	ErrTargetNotFound = zerr.New("target not found")

	// ErrMissingDependency is returned when a target references a dependency that is not registered.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when target dependencies form a cycle.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrNoTargetsSelected is returned when every requested target was excluded.
	ErrNoTargetsSelected = zerr.New("no targets selected")

	// ErrInvalidTargetName is returned when a target name contains invalid characters.
	ErrInvalidTargetName = zerr.New("target name can only contain alphanumeric characters, dots, hyphens and underscores")

	// ErrInvalidTarget is returned when a target definition is incomplete.
	ErrInvalidTarget = zerr.New("invalid target definition")

	// ErrUnknownStrategy is returned when a target names a configuration strategy that does not exist.
	ErrUnknownStrategy = zerr.New("unknown configuration strategy, expected autotools, cmake, meson or custom")

	// ErrUnknownCustomBuild is returned when a custom target has no registered build sequence.
	ErrUnknownCustomBuild = zerr.New("no custom build registered for target")

	// ErrUnsupportedPlatform is returned when a platform name cannot be parsed.
	ErrUnsupportedPlatform = zerr.New("unsupported platform, expected linux, darwin or windows")

	// ErrUnrecognizedPath is returned when a path cannot be translated to the toolchain convention.
	ErrUnrecognizedPath = zerr.New("unrecognized path syntax")

	// ErrMissingTool is returned when required external tools are not available on PATH.
	ErrMissingTool = zerr.New("required tools not found")

	// ErrDownloadFailed is returned when a source archive could not be fetched within the retry budget.
	ErrDownloadFailed = zerr.New("failed to download source archive")

	// ErrDownloadStatus is returned when the remote server answers with a non-success status.
	ErrDownloadStatus = zerr.New("unexpected download response status")

	// ErrUnsupportedArchive is returned when an archive filename has no known extractor.
	ErrUnsupportedArchive = zerr.New("unsupported archive format")

	// ErrExtractionFailed is returned when a source archive cannot be expanded.
	ErrExtractionFailed = zerr.New("failed to extract source archive")

	// ErrUnsafeArchivePath is returned when an archive entry would be written outside its destination.
	ErrUnsafeArchivePath = zerr.New("archive entry escapes destination directory")

	// ErrCommandFailed is returned when an external command exits with a non-zero status.
	ErrCommandFailed = zerr.New("command failed")

	// ErrHookFailed is returned when a target hook reports an error.
	ErrHookFailed = zerr.New("target hook failed")

	// ErrLedgerWriteFailed is returned when a ledger marker cannot be created.
	ErrLedgerWriteFailed = zerr.New("failed to write ledger marker")

	// ErrLedgerResetFailed is returned when ledger markers cannot be removed.
	ErrLedgerResetFailed = zerr.New("failed to reset ledger")

	// ErrDirectoryCreateFailed is returned when a working directory cannot be created.
	ErrDirectoryCreateFailed = zerr.New("failed to create directory")

	// ErrPatchFailed is returned when a source file cannot be patched.
	ErrPatchFailed = zerr.New("failed to patch source file")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrBuildExecutionFailed is returned when the build run fails.
	ErrBuildExecutionFailed = zerr.New("build execution failed")
)
