package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckit-sh/ckit/pkg/checksum"
	"github.com/ckit-sh/ckit/pkg/types"
)

func writeTestFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	return abs
}

func writeRawManifest(t *testing.T, root, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(Path(root), []byte(content), 0o644))
}

func TestReadManifest(t *testing.T) {
	valid := `{
  "schemaVersion": 2,
  "kits": {
    "engineer": {
      "version": "1.0.0",
      "installedAt": "2025-03-01T10:00:00Z",
      "files": [
        {"path": "commands/a.md", "checksum": "sha256:aaa", "ownership": "ck"}
      ]
    }
  },
  "scope": "local"
}`

	tests := []struct {
		name    string
		content string
		write   bool
		wantNil bool
	}{
		{
			name:    "missing document",
			write:   false,
			wantNil: true,
		},
		{
			name:    "empty document",
			content: "",
			write:   true,
			wantNil: true,
		},
		{
			name:    "malformed json",
			content: "{not json",
			write:   true,
			wantNil: true,
		},
		{
			name:    "schema violation",
			content: `{"schemaVersion": 2, "kits": {"x": {"files": []}}}`,
			write:   true,
			wantNil: true,
		},
		{
			name:    "wrong ownership value",
			content: `{"schemaVersion": 2, "kits": {"x": {"version": "1.0.0", "files": [{"path": "a", "ownership": "stolen"}]}}}`,
			write:   true,
			wantNil: true,
		},
		{
			name:    "valid document",
			content: valid,
			write:   true,
			wantNil: false,
		},
		{
			name:    "legacy document",
			content: `{"name": "engineer", "version": "0.9.0", "installedFiles": ["commands/a.md"]}`,
			write:   true,
			wantNil: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			if tt.write {
				writeRawManifest(t, root, tt.content)
			}

			meta := ReadManifest(root)
			if tt.wantNil {
				assert.Nil(t, meta)
				return
			}
			require.NotNil(t, meta)
		})
	}
}

func TestReadManifestContents(t *testing.T) {
	root := t.TempDir()
	writeRawManifest(t, root, `{
  "schemaVersion": 2,
  "kits": {
    "engineer": {
      "version": "1.2.0",
      "installedAt": "2025-03-01T10:00:00Z",
      "type": "starter",
      "files": [
        {"path": "commands/a.md", "checksum": "sha256:aaa", "ownership": "ck"},
        {"path": "agents/b.md", "checksum": "sha256:bbb", "baseChecksum": "sha256:ccc", "ownership": "ck-modified"}
      ]
    }
  },
  "scope": "global",
  "userConfigFiles": ["settings.local.json"]
}`)

	meta := ReadManifest(root)
	require.NotNil(t, meta)
	assert.Equal(t, types.ManifestSchemaVersion, meta.SchemaVersion)
	assert.Equal(t, types.ScopeGlobal, meta.Scope)
	assert.Equal(t, []string{"settings.local.json"}, meta.UserConfigFiles)
	assert.False(t, meta.IsLegacy())

	kit, ok := meta.Kits["engineer"]
	require.True(t, ok)
	assert.Equal(t, "1.2.0", kit.Version)
	assert.Equal(t, "starter", kit.Type)
	require.Len(t, kit.Files, 2)
	assert.Equal(t, "sha256:aaa", kit.Files[0].Baseline())
	assert.Equal(t, "sha256:ccc", kit.Files[1].Baseline())
	assert.Equal(t, types.OwnershipKitModified, kit.Files[1].Ownership)
}

func TestReadKitManifest(t *testing.T) {
	root := t.TempDir()
	writeRawManifest(t, root, `{
  "schemaVersion": 2,
  "kits": {
    "engineer": {"version": "1.0.0", "installedAt": "2025-03-01T10:00:00Z"}
  }
}`)

	kit := ReadKitManifest(root, "engineer")
	require.NotNil(t, kit)
	assert.Equal(t, "1.0.0", kit.Version)

	assert.Nil(t, ReadKitManifest(root, "writer"))
	assert.Nil(t, ReadKitManifest(t.TempDir(), "engineer"))
}

func TestWriteDocumentFormat(t *testing.T) {
	root := t.TempDir()
	meta := &types.Metadata{
		SchemaVersion: types.ManifestSchemaVersion,
		Kits: map[string]types.KitMetadata{
			"engineer": {Version: "1.0.0", InstalledAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		},
		Scope: types.ScopeLocal,
	}

	require.NoError(t, writeDocument(Path(root), meta))

	data, err := os.ReadFile(Path(root))
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.HasPrefix(content, "{\n  \"schemaVersion\": 2"), "two-space indentation: %s", content)
	assert.True(t, strings.HasSuffix(content, "}\n"))

	// No temp file left behind.
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasSuffix(entry.Name(), ".tmp"), "leftover temp file %s", entry.Name())
	}
}

func TestMigrateDocument(t *testing.T) {
	t.Run("legacy lists lifted into kit entry", func(t *testing.T) {
		root := t.TempDir()
		writeTestFile(t, root, "agents/b.md", "agent body\n")

		doc := &document{
			Metadata: types.Metadata{
				Name:        "engineer",
				Version:     "0.9.0",
				InstalledAt: "2025-02-01T08:30:00Z",
			},
			LegacyFiles: []types.TrackedFile{
				{Path: "commands/a.md", Checksum: "sha256:aaa", Ownership: types.OwnershipKit},
			},
			LegacyInstalledFiles: []string{"agents/b.md", "agents/missing.md"},
		}

		changed, warnings := migrateDocument(doc, root)
		assert.True(t, changed)
		assert.Equal(t, 1, warnings)
		assert.Equal(t, types.ManifestSchemaVersion, doc.SchemaVersion)
		assert.Nil(t, doc.LegacyFiles)
		assert.Nil(t, doc.LegacyInstalledFiles)

		kit, ok := doc.Kits["engineer"]
		require.True(t, ok)
		assert.Equal(t, "0.9.0", kit.Version)
		assert.Equal(t, time.Date(2025, 2, 1, 8, 30, 0, 0, time.UTC), kit.InstalledAt)

		require.Len(t, kit.Files, 2)
		assert.Equal(t, "commands/a.md", kit.Files[0].Path)
		assert.Equal(t, "sha256:aaa", kit.Files[0].Checksum)
		assert.Equal(t, "agents/b.md", kit.Files[1].Path)
		assert.Equal(t, checksum.CalculateChecksum([]byte("agent body\n")), kit.Files[1].Checksum)
		assert.Equal(t, types.OwnershipKit, kit.Files[1].Ownership)
		assert.Equal(t, "0.9.0", kit.Files[1].InstalledVersion)

		// Display fields survive.
		assert.Equal(t, "engineer", doc.Name)
		assert.Equal(t, "0.9.0", doc.Version)
	})

	t.Run("unnamed legacy document gets default kit id", func(t *testing.T) {
		root := t.TempDir()
		doc := &document{
			LegacyFiles: []types.TrackedFile{
				{Path: "commands/a.md", Checksum: "sha256:aaa", Ownership: types.OwnershipKit},
			},
		}

		changed, warnings := migrateDocument(doc, root)
		assert.True(t, changed)
		assert.Zero(t, warnings)
		assert.True(t, doc.HasKit(LegacyKitID))
	})

	t.Run("escaping legacy path skipped", func(t *testing.T) {
		root := t.TempDir()
		doc := &document{
			LegacyFiles: []types.TrackedFile{
				{Path: "../outside.md", Checksum: "sha256:aaa", Ownership: types.OwnershipKit},
				{Path: "commands/a.md", Checksum: "sha256:bbb", Ownership: types.OwnershipKit},
			},
		}

		_, warnings := migrateDocument(doc, root)
		assert.Equal(t, 1, warnings)
		kit := doc.Kits[LegacyKitID]
		require.Len(t, kit.Files, 1)
		assert.Equal(t, "commands/a.md", kit.Files[0].Path)
	})

	t.Run("current document untouched", func(t *testing.T) {
		doc := &document{
			Metadata: types.Metadata{
				SchemaVersion: types.ManifestSchemaVersion,
				Kits:          map[string]types.KitMetadata{"engineer": {Version: "1.0.0"}},
			},
		}

		changed, warnings := migrateDocument(doc, t.TempDir())
		assert.False(t, changed)
		assert.Zero(t, warnings)
	})
}

func TestMigrationThroughWrite(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "commands/a.md", "command a\n")
	writeTestFile(t, root, "skills/s.md", "skill s\n")
	writeRawManifest(t, root, `{
  "name": "engineer",
  "version": "0.9.0",
  "installedAt": "2025-02-01T08:30:00Z",
  "installedFiles": ["commands/a.md"]
}`)

	store := NewStore(Config{Root: root})
	require.NoError(t, store.TrackFile("skills/s.md", "2.0.0"))
	require.NoError(t, store.WriteManifest("writer", "2.0.0", types.ScopeLocal, ""))

	meta := ReadManifest(root)
	require.NotNil(t, meta)
	assert.Equal(t, []string{"engineer", "writer"}, meta.KitIDs())
	assert.Equal(t, "engineer", meta.Name, "legacy display name kept")

	raw, err := os.ReadFile(Path(root))
	require.NoError(t, err)
	var onDisk map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.NotContains(t, onDisk, "installedFiles", "legacy list must not be written back")
	assert.NotContains(t, onDisk, "files")
}
