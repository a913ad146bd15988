package userdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureUserRootIsIdempotent(t *testing.T) {
	r := NewResolver(t.TempDir())

	first, err := r.EnsureUserRoot(42)
	require.NoError(t, err)
	second, err := r.EnsureUserRoot(42)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	info, err := os.Stat(first)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, "42", filepath.Base(first))
}

func TestEnsureFeatureDir(t *testing.T) {
	r := NewResolver(t.TempDir())

	dir, err := r.EnsureFeatureDir(42, "rar_files")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.UserRoot(42), "rar_files"), dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestResolveWithinUser(t *testing.T) {
	r := NewResolver(t.TempDir())

	path, err := r.ResolveWithinUser(42, filepath.Join("rar_files", "backup.zip"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.UserRoot(42), "rar_files", "backup.zip"), path)
}

func TestResolveWithinUserRejectsTraversal(t *testing.T) {
	r := NewResolver(t.TempDir())

	traversals := []string{
		"../43/secret.txt",
		"../../etc/passwd",
		filepath.Join("rar_files", "..", "..", "43", "x"),
		".",
		"",
	}
	for _, rel := range traversals {
		path, err := r.ResolveWithinUser(42, rel)
		assert.ErrorIs(t, err, ErrOutsideRoot, rel)
		assert.Empty(t, path, "rejection must never return a path")
	}
}
