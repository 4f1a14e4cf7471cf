package ports

import "go.trai.ch/kiln/internal/core/domain"

// ConfigLoader defines the interface for loading the target registry.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load discovers the configuration starting at cwd and walking up.
	// When no configuration file exists, the built-in registry rooted at cwd is returned.
	Load(cwd string) (*domain.Manifest, error)

	// LoadFile loads the configuration at an explicit path.
	LoadFile(path string) (*domain.Manifest, error)
}
