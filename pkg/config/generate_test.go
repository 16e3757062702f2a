package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateConfigContent(t *testing.T) {
	content, err := GenerateConfigContent()
	require.NoError(t, err)

	assert.Contains(t, content, "[sync]")
	assert.Contains(t, content, "[lock]")
	assert.Contains(t, content, "checksum_concurrency")

	// Every assignment is commented out; only comments, blanks, and
	// section headers survive untouched.
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		assert.True(t, strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]"),
			"unexpected uncommented line: %q", line)
	}
}

func TestGeneratedConfigRoundTrip(t *testing.T) {
	content, err := GenerateConfigContent()
	require.NoError(t, err)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "ckit.toml"), []byte(content), 0o644))

	// A fully commented config changes nothing.
	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestRenderConfig(t *testing.T) {
	cfg := Default()
	cfg.Diff.ContextLines = 6

	rendered, err := RenderConfig(cfg)
	require.NoError(t, err)

	assert.Contains(t, rendered, "context_lines = 6")
	assert.Contains(t, rendered, "stale_after")
	assert.Contains(t, rendered, "1m0s")

	// Rendered output parses back to the same configuration.
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "ckit.toml"), []byte(rendered), 0o644))
	parsed, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, cfg, parsed)
}
