package uninstall

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupEmptyDirectories(t *testing.T) {
	t.Run("removes empty chain up to root", func(t *testing.T) {
		root := t.TempDir()
		deleted := filepath.Join(root, "a", "b", "c", "file.md")
		require.NoError(t, os.MkdirAll(filepath.Dir(deleted), 0o755))

		CleanupEmptyDirectories(deleted, root)

		_, err := os.Stat(filepath.Join(root, "a"))
		assert.True(t, os.IsNotExist(err), "empty chain removed")
		_, err = os.Stat(root)
		assert.NoError(t, err, "root survives")
	})

	t.Run("stops at first non-empty directory", func(t *testing.T) {
		root := t.TempDir()
		deleted := filepath.Join(root, "a", "b", "c", "file.md")
		require.NoError(t, os.MkdirAll(filepath.Dir(deleted), 0o755))
		writeFile(t, root, "a/b/keep.md", "keep\n")

		CleanupEmptyDirectories(deleted, root)

		_, err := os.Stat(filepath.Join(root, "a", "b", "c"))
		assert.True(t, os.IsNotExist(err), "empty leaf removed")
		_, err = os.Stat(filepath.Join(root, "a", "b"))
		assert.NoError(t, err, "non-empty parent kept")
	})

	t.Run("file directly under root", func(t *testing.T) {
		root := t.TempDir()
		CleanupEmptyDirectories(filepath.Join(root, "file.md"), root)
		_, err := os.Stat(root)
		assert.NoError(t, err)
	})

	t.Run("path outside root untouched", func(t *testing.T) {
		root := t.TempDir()
		outside := t.TempDir()
		victim := filepath.Join(outside, "dir")
		require.NoError(t, os.MkdirAll(victim, 0o755))

		CleanupEmptyDirectories(filepath.Join(victim, "file.md"), root)

		_, err := os.Stat(victim)
		assert.NoError(t, err, "directories outside root are never removed")
	})
}
