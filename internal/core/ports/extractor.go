package ports

import "context"

// Extractor expands a source archive.
//
//go:generate mockgen -source=extractor.go -destination=mocks/mock_extractor.go -package=mocks
type Extractor interface {
	// Extract expands archive into destDir. The archive format is chosen from its filename.
	Extract(ctx context.Context, archive, destDir string) error
}
