package manifest

import (
	"path"
	"path/filepath"
	"time"

	"github.com/ckit-sh/ckit/pkg/checksum"
	"github.com/ckit-sh/ckit/pkg/logging"
	"github.com/ckit-sh/ckit/pkg/paths"
	"github.com/ckit-sh/ckit/pkg/types"
)

// LegacyKitID names the kit a pre-multi-kit document migrates into
// when the document itself does not carry a name. List and status use
// it so an unnamed legacy kit shows the same identifier before and
// after migration.
const LegacyKitID = "default"

// normalizePath converts a manifest-relative path to its canonical
// forward-slash form. Paths are compared in this form everywhere.
func normalizePath(rel string) string {
	return path.Clean(filepath.ToSlash(rel))
}

// migrateDocument upgrades a legacy single-kit document to the
// multi-kit schema in place. The legacy top-level file lists are
// lifted into a kit entry; entries that only recorded a path get a
// checksum computed from disk. Files that fail validation or hashing
// are logged and skipped rather than blocking the migration. The
// legacy name, version, and installedAt fields stay on the document
// for display. Returns whether anything changed and how many files
// were skipped.
func migrateDocument(doc *document, root string) (bool, int) {
	if doc == nil {
		return false, 0
	}
	if !doc.IsLegacy() && len(doc.LegacyFiles) == 0 && len(doc.LegacyInstalledFiles) == 0 {
		return false, 0
	}

	logger := logging.GetLogger("manifest")
	warnings := 0

	kitID := doc.Name
	if kitID == "" {
		kitID = LegacyKitID
	}

	seen := make(map[string]bool)
	var files []types.TrackedFile

	for _, file := range doc.LegacyFiles {
		rel := normalizePath(file.Path)
		if seen[rel] {
			continue
		}
		if _, err := paths.ValidateSubpath(root, file.Path); err != nil {
			logger.Warn().Err(err).Str("path", file.Path).Msg("Skipping legacy entry, path invalid")
			warnings++
			continue
		}
		file.Path = rel
		if !file.Ownership.Valid() {
			file.Ownership = types.OwnershipKit
		}
		seen[rel] = true
		files = append(files, file)
	}

	for _, p := range doc.LegacyInstalledFiles {
		rel := normalizePath(p)
		if seen[rel] {
			continue
		}
		abs, err := paths.ValidateSubpath(root, p)
		if err != nil {
			logger.Warn().Err(err).Str("path", p).Msg("Skipping legacy entry, path invalid")
			warnings++
			continue
		}
		sum, err := checksum.CalculateFileChecksum(abs)
		if err != nil {
			logger.Warn().Err(err).Str("path", p).Msg("Skipping legacy entry, checksum failed")
			warnings++
			continue
		}
		seen[rel] = true
		files = append(files, types.TrackedFile{
			Path:             rel,
			Checksum:         sum,
			Ownership:        types.OwnershipKit,
			InstalledVersion: doc.Version,
		})
	}

	installedAt := time.Now().UTC()
	if doc.InstalledAt != "" {
		if parsed, err := time.Parse(time.RFC3339, doc.InstalledAt); err == nil {
			installedAt = parsed
		}
	}

	if doc.Kits == nil {
		doc.Kits = make(map[string]types.KitMetadata)
	}
	doc.Kits[kitID] = types.KitMetadata{
		Version:     doc.Version,
		InstalledAt: installedAt,
		Files:       files,
	}
	doc.SchemaVersion = types.ManifestSchemaVersion
	doc.LegacyFiles = nil
	doc.LegacyInstalledFiles = nil

	logger.Info().
		Str("kit", kitID).
		Int("files", len(files)).
		Int("skipped", warnings).
		Msg("Migrated legacy manifest")
	return true, warnings
}
