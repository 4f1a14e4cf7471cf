package recipes_test

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/recipes"
)

func TestPatchFile_KeepsPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configure")
	require.NoError(t, os.WriteFile(path, []byte("a b a"), domain.ExecPerm))

	require.NoError(t, recipes.PatchFile(path,
		recipes.Replacement{Old: "a", New: "c"},
		recipes.Replacement{Old: "c b", New: "d"},
	))

	assert.Equal(t, "d c", readFile(t, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(domain.ExecPerm), info.Mode().Perm())
}

func TestPatchFileRegexp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CMakeLists.txt")
	writeFile(t, path, "x1 y x22\n")

	require.NoError(t, recipes.PatchFileRegexp(path, regexp.MustCompile(`x\d+`), "n"))
	assert.Equal(t, "n y n\n", readFile(t, path))
}

func TestPatchFile_Missing(t *testing.T) {
	err := recipes.PatchFile(filepath.Join(t.TempDir(), "absent"), recipes.Replacement{Old: "a", New: "b"})
	assert.ErrorContains(t, err, domain.ErrPatchFailed.Error())
}
