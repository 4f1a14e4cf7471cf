// Package detector provides environment detection for output mode selection.
package detector

import (
	"os"

	"golang.org/x/term"
)

// OutputMode represents how command output is presented.
type OutputMode int

const (
	// ModeAuto automatically detects the appropriate mode.
	ModeAuto OutputMode = iota
	// ModeStream prints every command line as it arrives.
	ModeStream
	// ModeQuiet prints phase progress only and replays the tail of a failing target's output.
	ModeQuiet
)

// String returns the flag spelling of the mode.
func (m OutputMode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeQuiet:
		return "quiet"
	default:
		return "auto"
	}
}

// DetectEnvironment returns the recommended output mode based on the environment.
// Interactive terminals get quiet output. Pipes and CI logs get the full stream.
func DetectEnvironment() OutputMode {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))

	ci := os.Getenv("CI")
	isCI := ci == "true" || ci == "1"

	if !isTTY || isCI {
		return ModeStream
	}
	return ModeQuiet
}

// ResolveMode applies user override flag to auto-detection.
// userFlag should be one of: "auto", "stream", "quiet", or empty.
func ResolveMode(autoDetected OutputMode, userFlag string) OutputMode {
	switch userFlag {
	case "stream", "verbose":
		return ModeStream
	case "quiet", "silent":
		return ModeQuiet
	default:
		return autoDetected
	}
}
