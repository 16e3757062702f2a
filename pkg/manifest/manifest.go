// Package manifest reads, migrates, and writes the per-root manifest
// document that records which kits are installed and which files each
// kit owns. All mutation goes through a Store guarded by an advisory
// file lock; reads are lock-free and never fail, treating a missing or
// malformed document as "no manifest".
package manifest

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ckit-sh/ckit/pkg/errors"
	"github.com/ckit-sh/ckit/pkg/logging"
	"github.com/ckit-sh/ckit/pkg/paths"
	"github.com/ckit-sh/ckit/pkg/types"
)

// Path returns the manifest location for an install root.
func Path(root string) string {
	return filepath.Join(root, paths.ManifestFileName)
}

// document is the on-disk shape. It embeds the current metadata and
// additionally captures the per-file lists that legacy single-kit
// documents carried at the top level, so migration can lift them into
// a kit entry. Writes always marshal the embedded Metadata alone,
// which drops the legacy lists from disk.
type document struct {
	types.Metadata
	LegacyFiles          []types.TrackedFile `json:"files,omitempty"`
	LegacyInstalledFiles []string            `json:"installedFiles,omitempty"`
}

// ReadManifest loads and validates the manifest under root. It returns
// nil when the document is missing, unreadable, or fails schema
// validation; callers treat nil as "nothing installed".
func ReadManifest(root string) *types.Metadata {
	doc := readDocument(root)
	if doc == nil {
		return nil
	}
	return &doc.Metadata
}

// ReadKitManifest returns the metadata for a single kit, or nil when
// the manifest is absent or does not track that kit.
func ReadKitManifest(root, kitID string) *types.KitMetadata {
	meta := ReadManifest(root)
	if meta == nil {
		return nil
	}
	kit, ok := meta.Kits[kitID]
	if !ok {
		return nil
	}
	return &kit
}

func readDocument(root string) *document {
	logger := logging.GetLogger("manifest")
	path := Path(root)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", path).Msg("Manifest unreadable, treating as absent")
		}
		return nil
	}

	// Lock acquisition creates the target empty before first write.
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := validateDocument(data); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Manifest invalid, treating as absent")
		return nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Manifest undecodable, treating as absent")
		return nil
	}
	return &doc
}

// writeDocument persists metadata atomically: marshal with two-space
// indentation, write to a temp file in the same directory, then rename
// over the target so lock-free readers never see a partial document.
func writeDocument(path string, meta *types.Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrManifestWrite, "failed to encode manifest")
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ckit-manifest-*.tmp")
	if err != nil {
		return errors.Wrapf(err, errors.ErrManifestWrite, "failed to create temp manifest in %s", dir)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrManifestWrite, "failed to write manifest")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrManifestWrite, "failed to flush manifest")
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, errors.ErrManifestWrite, "failed to replace manifest %s", path)
	}
	return nil
}
