// Package config provides the registry loader for kiln.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// builtinSource names the embedded registry in error metadata.
const builtinSource = "<builtin>"

// SchemaVersion is the kiln.yaml version this loader understands.
const SchemaVersion = "1"

// DefaultTools are the preflight requirements used when a configuration names none.
var DefaultTools = []string{"make", "g++"}

// Loader implements ports.ConfigLoader using YAML files.
type Loader struct {
	Logger  ports.Logger
	builtin []byte
}

var _ ports.ConfigLoader = (*Loader)(nil)

// NewLoader creates a new Loader. builtin is the registry used when no kiln.yaml is found.
func NewLoader(logger ports.Logger, builtin []byte) *Loader {
	return &Loader{Logger: logger, builtin: builtin}
}

// Load discovers kiln.yaml from cwd upwards, falling back to the built-in registry rooted at cwd.
func (l *Loader) Load(cwd string) (*domain.Manifest, error) {
	configPath, found := findConfiguration(cwd)
	if found {
		return l.LoadFile(configPath)
	}

	var kilnfile Kilnfile
	if err := yaml.Unmarshal(l.builtin, &kilnfile); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "file", builtinSource)
	}
	return buildManifest(&kilnfile, filepath.Clean(cwd))
}

// LoadFile reads the configuration at path. Relative prefix and workdir resolve against its directory.
func (l *Loader) LoadFile(path string) (*domain.Manifest, error) {
	var kilnfile Kilnfile
	if err := readAndUnmarshalYAML(path, &kilnfile); err != nil {
		return nil, zerr.With(err, "file", path)
	}

	if kilnfile.Version != "" && kilnfile.Version != SchemaVersion {
		l.Logger.Warn(fmt.Sprintf("%s declares version %q, expected %q", path, kilnfile.Version, SchemaVersion))
	}

	manifest, err := buildManifest(&kilnfile, filepath.Dir(filepath.Clean(path)))
	if err != nil {
		return nil, zerr.With(err, "file", path)
	}
	return manifest, nil
}

func findConfiguration(cwd string) (string, bool) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", false
		}
		currentDir = parentDir
	}
}

func buildManifest(kilnfile *Kilnfile, root string) (*domain.Manifest, error) {
	reg := domain.NewRegistry()

	// Map iteration is random; sort for deterministic errors.
	names := make([]string, 0, len(kilnfile.Targets))
	for name := range kilnfile.Targets {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		target, err := buildTarget(name, kilnfile.Targets[name])
		if err != nil {
			return nil, err
		}
		if err := reg.Add(target); err != nil {
			return nil, err
		}
	}

	if err := reg.Validate(); err != nil {
		return nil, err
	}
	if len(kilnfile.Defaults) > 0 {
		if err := reg.SetDefaults(kilnfile.Defaults); err != nil {
			return nil, err
		}
	}

	tools := kilnfile.Tools
	if tools == nil {
		tools = slices.Clone(DefaultTools)
	}

	return &domain.Manifest{
		Root:     root,
		Prefix:   resolveDir(root, kilnfile.Prefix, domain.PrefixDirName),
		WorkDir:  resolveDir(root, kilnfile.WorkDir, domain.WorkDirName),
		Tools:    tools,
		Registry: reg,
	}, nil
}

func buildTarget(name string, dto TargetDTO) (*domain.Target, error) {
	strategy, err := domain.ParseStrategy(dto.Strategy)
	if err != nil {
		return nil, zerr.With(err, "target", name)
	}

	platforms := make([]domain.OS, 0, len(dto.Platforms))
	for _, p := range dto.Platforms {
		os, err := domain.ParseOS(p)
		if err != nil {
			return nil, zerr.With(err, "target", name)
		}
		platforms = append(platforms, os)
	}

	target := &domain.Target{
		Name: name,
		Download: domain.Download{
			URL:      dto.Download.URL,
			Filename: dto.Download.Filename,
			Dir:      dto.Download.Dir,
		},
		Folder:       slices.Clone(dto.Folder),
		Strategy:     strategy,
		Options:      slices.Clone(dto.Options),
		Dependencies: slices.Clone(dto.DependsOn),
		Platforms:    platforms,
	}

	if err := target.Validate(); err != nil {
		return nil, err
	}
	return target, nil
}

func resolveDir(root, configured, fallback string) string {
	if configured == "" {
		configured = fallback
	}
	if filepath.IsAbs(configured) {
		return filepath.Clean(configured)
	}
	return filepath.Clean(filepath.Join(root, configured))
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is discovered or passed explicitly by the user
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}
