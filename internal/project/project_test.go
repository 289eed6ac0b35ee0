package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRootFromNestedPath(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "Assets", "Prefabs", "Deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestFindRootFromFile(t *testing.T) {
	root := t.TempDir()
	prefabs := filepath.Join(root, "Assets", "Prefabs")
	require.NoError(t, os.MkdirAll(prefabs, 0o755))
	file := filepath.Join(prefabs, "Player.prefab")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	found, err := FindRoot(file)
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestFindRootAtRootItself(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Assets"), 0o755))

	found, err := FindRoot(root)
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestFindRootMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := FindRoot(dir)
	assert.Error(t, err)
}

func TestAssetsDir(t *testing.T) {
	assert.Equal(t, filepath.Join("/proj", "Assets"), AssetsDir("/proj"))
}
