package ports

import "context"

// Fetcher retrieves a remote resource into a local file.
//
//go:generate mockgen -source=fetcher.go -destination=mocks/mock_fetcher.go -package=mocks
type Fetcher interface {
	// Fetch performs a single attempt to store url at dest.
	Fetch(ctx context.Context, url, dest string) error
}
