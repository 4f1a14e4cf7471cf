// Package fetch downloads source archives over HTTP.
package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// userAgent identifies kiln to archive mirrors, some of which reject Go's default agent.
const userAgent = "kiln (+https://go.trai.ch/kiln)"

// HTTPFetcher implements ports.Fetcher with a single GET per attempt.
type HTTPFetcher struct {
	client *http.Client
}

var _ ports.Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates a fetcher using client, or http.DefaultClient when client is nil.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client}
}

// Fetch stores the body of url at dest. On failure no partial file is left behind.
func (f *HTTPFetcher) Fetch(ctx context.Context, url, dest string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "invalid download request"), "url", url)
	}
	req.Header.Set("User-Agent", userAgent)

	//nolint:gosec // URLs come from the target registry
	resp, err := f.client.Do(req)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "download request failed"), "url", url)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		err := zerr.With(domain.ErrDownloadStatus, "status", resp.Status)
		return zerr.With(err, "url", url)
	}

	if err := os.MkdirAll(filepath.Dir(dest), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrDirectoryCreateFailed.Error()), "path", filepath.Dir(dest))
	}

	//nolint:gosec // Destination is derived from the working area and the registry filename
	out, err := os.Create(dest)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create archive file"), "path", dest)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = zerr.With(zerr.Wrap(closeErr, "failed to close archive file"), "path", dest)
		}
		if err != nil {
			_ = os.Remove(dest)
		}
	}()

	if _, err := io.Copy(out, resp.Body); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return zerr.With(zerr.Wrap(err, "download interrupted"), "url", url)
	}

	return nil
}
