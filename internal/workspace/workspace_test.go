package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManager_EphemeralMode(t *testing.T) {
	mgr := NewManager(t.TempDir(), "test_package")
	require.NoError(t, mgr.Create())

	ws := mgr.Path()
	require.True(t, strings.HasPrefix(filepath.Base(ws), "nickeltools-test_package-"))
	require.DirExists(t, ws)

	sub, err := mgr.Subdir("build")
	require.NoError(t, err)
	require.DirExists(t, sub)

	require.NoError(t, mgr.Cleanup())
	require.NoDirExists(t, ws)
	require.Empty(t, mgr.Path())
	require.NoError(t, mgr.Cleanup())
}

func TestManager_EphemeralDirectoriesAreUnique(t *testing.T) {
	base := t.TempDir()
	a, b := NewManager(base, ""), NewManager(base, "")
	require.NoError(t, a.Create())
	require.NoError(t, b.Create())
	require.NotEqual(t, a.Path(), b.Path())
}

func TestManager_PersistentMode(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "build", "test_package")
	mgr := NewPersistentManager(dir)
	require.NoError(t, mgr.Create())
	require.Equal(t, dir, mgr.Path())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CMakeCache.txt"), nil, 0o644))

	require.NoError(t, mgr.Cleanup())
	require.FileExists(t, filepath.Join(dir, "CMakeCache.txt"))
}

func TestManager_SubdirBeforeCreate(t *testing.T) {
	_, err := NewManager(t.TempDir(), "x").Subdir("y")
	require.Error(t, err)
}
