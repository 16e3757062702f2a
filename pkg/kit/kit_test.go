package kit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckit-sh/ckit/pkg/errors"
	"github.com/ckit-sh/ckit/pkg/filesystem"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "commands/review.md", "review\n")
	writeFile(t, root, "agents/writer.md", "writer\n")
	writeFile(t, root, "skills/deep/nested.md", "nested\n")
	writeFile(t, root, ".mcp.json", "{}\n")
	writeFile(t, root, ".git/config", "[core]\n")
	writeFile(t, root, ".ckit-manifest.json", "{}\n")
	writeFile(t, root, "kit.yaml", "name: engineer\nversion: 1.2.0\ndescription: Engineer starter kit\n")
	require.NoError(t, os.Symlink(
		filepath.Join(root, "commands/review.md"),
		filepath.Join(root, "commands/link.md")))

	upstream, err := Discover(root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		".mcp.json",
		"agents/writer.md",
		"commands/review.md",
		"skills/deep/nested.md",
	}, upstream.Files)

	require.NotNil(t, upstream.Descriptor)
	assert.Equal(t, "engineer", upstream.Descriptor.Name)
	assert.Equal(t, "1.2.0", upstream.Descriptor.Version)
	assert.Equal(t, "Engineer starter kit", upstream.Descriptor.Description)
}

func TestDiscoverWithoutDescriptor(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "commands/a.md", "a\n")

	upstream, err := Discover(root)
	require.NoError(t, err)
	assert.Nil(t, upstream.Descriptor)
	assert.Equal(t, []string{"commands/a.md"}, upstream.Files)
}

func TestDiscoverEmptyTree(t *testing.T) {
	upstream, err := Discover(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, upstream.Files)
}

func TestDiscoverErrors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := Discover(filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrKitInvalid))
	})

	t.Run("file instead of directory", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "kit.tar", "not a dir")
		_, err := Discover(filepath.Join(root, "kit.tar"))
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrKitInvalid))
	})

	t.Run("malformed descriptor", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "kit.yaml", "name: [unclosed\n")
		_, err := Discover(root)
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrKitInvalid))
	})
}

func TestDiscoverFSInMemory(t *testing.T) {
	fsys := filesystem.NewAferoFS(afero.NewMemMapFs())
	files := map[string]string{
		"/kit/kit.yaml":            "name: writer\nversion: 0.3.0\n",
		"/kit/commands/draft.md":   "draft\n",
		"/kit/.hidden/secret.md":   "secret\n",
		"/kit/agents/reviewer.md":  "reviewer\n",
		"/kit/.ckit-manifest.json": "{}\n",
	}
	for path, content := range files {
		require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, fsys.WriteFile(path, []byte(content), 0o644))
	}

	upstream, err := DiscoverFS(fsys, "/kit")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"agents/reviewer.md",
		"commands/draft.md",
	}, upstream.Files)
	require.NotNil(t, upstream.Descriptor)
	assert.Equal(t, "writer", upstream.Descriptor.Name)
}

func TestLoadDescriptorFallsBackToYml(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "kit.yml", "name: writer\nversion: 2.0.0\n")

	desc, err := LoadDescriptor(root)
	require.NoError(t, err)
	require.NotNil(t, desc)
	assert.Equal(t, "writer", desc.Name)
	assert.Equal(t, "2.0.0", desc.Version)
}
