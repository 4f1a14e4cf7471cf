// Package archive expands downloaded source archives into the working area.
package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Format identifies an archive container.
type Format int

const (
	// FormatUnknown marks a filename no extractor understands.
	FormatUnknown Format = iota
	// FormatTar covers plain and compressed tarballs.
	FormatTar
	// FormatZip covers zip files.
	FormatZip
)

var tarSuffixes = []string{".tar", ".tgz", ".tbz", ".tbz2", ".txz", ".tzst"}

// DetectFormat selects the container format from an archive filename.
func DetectFormat(filename string) Format {
	name := strings.ToLower(filepath.Base(filename))

	if strings.HasSuffix(name, ".zip") {
		return FormatZip
	}
	if strings.Contains(name, ".tar.") {
		return FormatTar
	}
	for _, suffix := range tarSuffixes {
		if strings.HasSuffix(name, suffix) {
			return FormatTar
		}
	}
	return FormatUnknown
}

// Extractor implements ports.Extractor for tar-family and zip archives.
type Extractor struct{}

var _ ports.Extractor = (*Extractor)(nil)

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract expands archive into destDir.
func (e *Extractor) Extract(ctx context.Context, archive, destDir string) error {
	var err error
	switch DetectFormat(archive) {
	case FormatTar:
		err = extractTar(ctx, archive, destDir)
	case FormatZip:
		err = extractZip(ctx, archive, destDir)
	default:
		return zerr.With(domain.ErrUnsupportedArchive, "archive", filepath.Base(archive))
	}

	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrExtractionFailed.Error()), "archive", archive)
	}
	return nil
}

// safeJoin resolves an entry name below destDir, rejecting names that escape it.
func safeJoin(destDir, name string) (string, error) {
	cleanDest := filepath.Clean(destDir)
	target := filepath.Join(cleanDest, filepath.FromSlash(name))

	if !within(cleanDest, target) {
		return "", zerr.With(domain.ErrUnsafeArchivePath, "entry", name)
	}
	return target, nil
}

func within(dir, path string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}

// root is an extraction destination. Entry paths are checked both lexically and
// against the real location of their parent directory, so symlinks created by
// earlier entries or left over from a previous extraction cannot redirect writes.
type root struct {
	dir  string
	real string
}

func openRoot(destDir string) (*root, error) {
	dir := filepath.Clean(destDir)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, err
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil, err
	}
	return &root{dir: dir, real: resolved}, nil
}

// resolve returns the on-disk path an entry is written to.
func (r *root) resolve(name string) (string, error) {
	target, err := safeJoin(r.dir, name)
	if err != nil {
		return "", err
	}
	if target == r.dir {
		return r.real, nil
	}

	parent, err := r.realDir(filepath.Dir(target))
	if err != nil {
		return "", zerr.With(err, "entry", name)
	}
	return filepath.Join(parent, filepath.Base(target)), nil
}

// realDir resolves the deepest existing ancestor of dir and requires it to stay inside the root.
func (r *root) realDir(dir string) (string, error) {
	existing, rest := dir, ""
	for existing != r.dir {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		rest = filepath.Join(filepath.Base(existing), rest)
		existing = filepath.Dir(existing)
	}

	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return "", zerr.With(domain.ErrUnsafeArchivePath, "path", existing)
	}
	if !within(r.real, resolved) {
		return "", zerr.With(domain.ErrUnsafeArchivePath, "path", existing)
	}
	return filepath.Join(resolved, rest), nil
}

// contains reports whether path lies inside the root's real location.
func (r *root) contains(path string) bool {
	return within(r.real, filepath.Clean(path))
}
