package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/ckit-sh/ckit/pkg/checksum"
	"github.com/ckit-sh/ckit/pkg/paths"
	"github.com/ckit-sh/ckit/pkg/types"
)

// Checksum returns content's checksum in the form manifests record.
func Checksum(content string) string {
	return checksum.CalculateChecksum([]byte(content))
}

// Tracked builds a pristine kit-owned record whose checksum matches
// content.
func Tracked(rel, content, version string) types.TrackedFile {
	return types.TrackedFile{
		Path:             rel,
		Checksum:         Checksum(content),
		Ownership:        types.OwnershipKit,
		InstalledVersion: version,
	}
}

// CreateKitSource scaffolds an upstream kit tree in a fresh temp
// directory: the given files plus a kit.yaml descriptor when descriptor
// is non-empty.
func CreateKitSource(t *testing.T, files map[string]string, descriptor string) string {
	t.Helper()

	dir := t.TempDir()
	for rel, content := range files {
		CreateFile(t, dir, rel, content)
	}
	if descriptor != "" {
		CreateFile(t, dir, "kit.yaml", descriptor)
	}
	return dir
}

// WriteManifest writes meta as the manifest document under root,
// defaulting the schema version for multi-kit documents.
func WriteManifest(t *testing.T, root string, meta types.Metadata) {
	t.Helper()

	if meta.SchemaVersion == 0 && len(meta.Kits) > 0 {
		meta.SchemaVersion = types.ManifestSchemaVersion
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		t.Fatalf("Failed to encode manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, paths.ManifestFileName), data, 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}
}

// InstallKit scaffolds an installed kit under root: the files land on
// disk and a fresh manifest records them as pristine. Any existing
// manifest is replaced; multi-kit fixtures compose Metadata themselves
// and use WriteManifest.
func InstallKit(t *testing.T, root, kitID, version string, files map[string]string) {
	t.Helper()

	records := make([]types.TrackedFile, 0, len(files))
	for rel, content := range files {
		CreateFile(t, root, rel, content)
		records = append(records, Tracked(rel, content, version))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })

	WriteManifest(t, root, types.Metadata{
		Kits: map[string]types.KitMetadata{
			kitID: {Version: version, InstalledAt: time.Now().UTC(), Files: records},
		},
		Scope: types.ScopeLocal,
	})
}
