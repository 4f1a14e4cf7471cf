package recipes

import (
	"os"
	"regexp"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Replacement is a literal substitution applied to every occurrence.
type Replacement struct {
	Old string
	New string
}

// PatchFile applies the replacements in order and rewrites path, keeping its permissions.
func PatchFile(path string, replacements ...Replacement) error {
	return rewrite(path, func(content string) string {
		for _, r := range replacements {
			content = strings.ReplaceAll(content, r.Old, r.New)
		}
		return content
	})
}

// PatchFileRegexp replaces every match of pattern in path.
func PatchFileRegexp(path string, pattern *regexp.Regexp, repl string) error {
	return rewrite(path, func(content string) string {
		return pattern.ReplaceAllString(content, repl)
	})
}

func rewrite(path string, edit func(string) string) error {
	info, err := os.Stat(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPatchFailed.Error()), "path", path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is a file inside the working area
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPatchFailed.Error()), "path", path)
	}

	if err := os.WriteFile(path, []byte(edit(string(data))), info.Mode().Perm()); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPatchFailed.Error()), "path", path)
	}
	return nil
}

// removeIfExists deletes path. A missing file is not an error.
func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return zerr.With(zerr.Wrap(err, domain.ErrPatchFailed.Error()), "path", path)
	}
	return nil
}
