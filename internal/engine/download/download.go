// Package download fetches source archives with retry and expands them into the working area.
package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// Attempts is the number of fetch attempts made for one archive.
	Attempts = 3
	// Delay is the pause between two fetch attempts.
	Delay = 3 * time.Second
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Manager downloads and extracts source archives.
type Manager struct {
	fetcher   ports.Fetcher
	extractor ports.Extractor
	logger    ports.Logger
	sleep     SleepFunc
}

// Option configures a Manager.
type Option func(*Manager)

// WithSleep replaces the wait between attempts.
func WithSleep(sleep SleepFunc) Option {
	return func(m *Manager) {
		m.sleep = sleep
	}
}

// NewManager creates a Manager.
func NewManager(fetcher ports.Fetcher, extractor ports.Extractor, logger ports.Logger, opts ...Option) *Manager {
	m := &Manager{
		fetcher:   fetcher,
		extractor: extractor,
		logger:    logger,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Fetch makes sure d is present in destDir and extracts it there.
// An archive already on disk is reused without validation. Extraction runs
// every time so patched sources are restored to their pristine state.
func (m *Manager) Fetch(ctx context.Context, d domain.Download, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, domain.DirPerm); err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrDirectoryCreateFailed.Error()), "path", destDir)
	}

	archive := filepath.Join(destDir, d.Filename)
	if _, err := os.Stat(archive); err == nil {
		m.logger.Info(fmt.Sprintf("Used %s from local cache", d.Filename))
	} else if err := m.download(ctx, d.URL, archive); err != nil {
		return "", err
	}

	if err := m.extractor.Extract(ctx, archive, destDir); err != nil {
		return "", err
	}
	return archive, nil
}

func (m *Manager) download(ctx context.Context, url, dest string) error {
	var (
		lastErr error
		made    int
	)
	for attempt := 1; attempt <= Attempts; attempt++ {
		if attempt > 1 {
			m.logger.Warn(fmt.Sprintf("Download of %s failed, retrying in %s (attempt %d/%d)", url, Delay, attempt, Attempts))
			if err := m.sleep(ctx, Delay); err != nil {
				lastErr = err
				break
			}
		}

		made++
		lastErr = m.fetcher.Fetch(ctx, url, dest)
		if lastErr == nil {
			return nil
		}
		_ = os.Remove(dest)

		if ctx.Err() != nil {
			break
		}
	}

	err := zerr.Wrap(lastErr, domain.ErrDownloadFailed.Error())
	err = zerr.With(err, "url", url)
	return zerr.With(err, "attempts", made)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
