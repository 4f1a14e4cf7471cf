// Package ledger records completed targets as marker files in the working area.
package ledger

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Store implements ports.Ledger with one empty "<target>.ok" file per built target.
type Store struct{}

var _ ports.Ledger = (*Store)(nil)

// NewStore creates a new marker-file ledger.
func NewStore() *Store {
	return &Store{}
}

// IsBuilt reports whether the marker for target exists. Entries never expire.
func (s *Store) IsBuilt(workDir, target string) bool {
	_, err := os.Stat(domain.MarkerPath(workDir, target))
	return err == nil
}

// MarkBuilt creates the zero-byte marker for target.
func (s *Store) MarkBuilt(workDir, target string) error {
	if err := domain.ValidateTargetName(target); err != nil {
		return err
	}

	if err := os.MkdirAll(workDir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrLedgerWriteFailed.Error()), "path", workDir)
	}

	path := domain.MarkerPath(workDir, target)
	//nolint:gosec // Path is built from the working area and a validated target name
	if err := os.WriteFile(path, nil, domain.FilePerm); err != nil {
		err = zerr.Wrap(err, domain.ErrLedgerWriteFailed.Error())
		return zerr.With(zerr.With(err, "target", target), "path", path)
	}

	return nil
}

// Reset removes every marker in workDir. A missing working area is not an error.
func (s *Store) Reset(workDir string) error {
	entries, err := os.ReadDir(workDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, domain.ErrLedgerResetFailed.Error()), "path", workDir)
	}

	var errs error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), domain.MarkerSuffix) {
			continue
		}
		path := filepath.Join(workDir, entry.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, domain.ErrLedgerResetFailed.Error()), "path", path))
		}
	}

	return errs
}
