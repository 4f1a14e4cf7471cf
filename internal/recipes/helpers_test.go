package recipes_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/config"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/hooks"
	"go.trai.ch/kiln/internal/recipes"
	"go.uber.org/mock/gomock"
)

type recordingRunner struct {
	commands []*domain.Command
}

func (r *recordingRunner) Run(_ context.Context, cmd *domain.Command) error {
	r.commands = append(r.commands, cmd)
	return nil
}

func (r *recordingRunner) args() [][]string {
	out := make([][]string, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c.Args)
	}
	return out
}

// builtinRegistry loads the embedded registry.
func builtinRegistry(t *testing.T) *domain.Registry {
	t.Helper()
	ctrl := gomock.NewController(t)
	loader := config.NewLoader(mocks.NewMockLogger(ctrl), recipes.DefaultRegistry)

	manifest, err := loader.Load(t.TempDir())
	require.NoError(t, err)
	return manifest.Registry
}

type runContext struct {
	bc     *domain.BuildContext
	root   string
	runner *recordingRunner
	logger *mocks.MockLogger
}

func newRunContext(t *testing.T, platform domain.OS, nonFree bool, requested ...string) *runContext {
	t.Helper()
	root := t.TempDir()
	ctrl := gomock.NewController(t)

	bc := domain.NewBuildContext(builtinRegistry(t), domain.BuildOptions{
		Prefix:    filepath.Join(root, "release"),
		WorkDir:   filepath.Join(root, "targets"),
		Platform:  platform,
		Jobs:      4,
		NonFree:   nonFree,
		Requested: requested,
	})
	return &runContext{bc: bc, root: root, runner: &recordingRunner{}, logger: mocks.NewMockLogger(ctrl)}
}

func (rc *runContext) call(t *testing.T, name string) *hooks.Call {
	t.Helper()
	target, ok := rc.bc.Target(name)
	require.True(t, ok, "unknown target %s", name)
	return &hooks.Call{
		BuildContext: rc.bc,
		Target:       target,
		Dir:          rc.bc.SourceDir(target),
		Runner:       rc.runner,
		Logger:       rc.logger,
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
