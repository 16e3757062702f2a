package diff

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckit-sh/ckit/pkg/errors"
)

func TestIsBinaryFile(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		binary  bool
	}{
		{name: "empty", content: nil, binary: false},
		{name: "plain text", content: []byte("# Heading\n\nSome prose.\n"), binary: false},
		{name: "tabs and carriage returns", content: []byte("col1\tcol2\r\nval1\tval2\r\n"), binary: false},
		{name: "multibyte text", content: []byte("héllo wörld\n"), binary: false},
		{name: "null byte", content: []byte("looks fine until\x00here"), binary: true},
		{name: "null byte at start", content: []byte{0}, binary: true},
		{
			name:    "occasional control char stays text",
			content: append(bytes.Repeat([]byte("a"), 99), 0x07),
			binary:  false,
		},
		{
			name:    "mostly control chars",
			content: append(bytes.Repeat([]byte{0x01}, 30), []byte("short tail")...),
			binary:  true,
		},
		{
			name:    "delete bytes count as non-printable",
			content: append(bytes.Repeat([]byte{127}, 30), []byte("short tail")...),
			binary:  true,
		},
		{
			name:    "null beyond the sample window is missed",
			content: append(bytes.Repeat([]byte("a"), binarySampleSize), 0),
			binary:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.binary, IsBinaryFile(tt.content))
		})
	}
}

func TestLoadFileContent(t *testing.T) {
	dir := t.TempDir()

	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0644))
		return path
	}

	t.Run("reads regular file", func(t *testing.T) {
		path := write("plain.md", []byte("kit instructions\n"))
		content, err := LoadFileContent(path, 0)
		require.NoError(t, err)
		assert.Equal(t, "kit instructions\n", content)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFileContent(filepath.Join(dir, "absent.md"), 0)
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrFileNotFound))
	})

	t.Run("rejects symlink", func(t *testing.T) {
		target := write("target.md", []byte("content\n"))
		link := filepath.Join(dir, "link.md")
		require.NoError(t, os.Symlink(target, link))

		_, err := LoadFileContent(link, 0)
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrSymlinkRejected))
	})

	t.Run("rejects oversized file", func(t *testing.T) {
		path := write("big.md", []byte(strings.Repeat("x", 64)))
		_, err := LoadFileContent(path, 16)
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrFileTooLarge))
	})

	t.Run("rejects null bytes", func(t *testing.T) {
		path := write("sneaky.md", []byte("text\x00more"))
		_, err := LoadFileContent(path, 0)
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrBinaryFile))
	})

	t.Run("rejects invalid utf8", func(t *testing.T) {
		path := write("latin1.md", []byte{'c', 'a', 'f', 0xe9})
		_, err := LoadFileContent(path, 0)
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrBinaryFile))
	})
}
