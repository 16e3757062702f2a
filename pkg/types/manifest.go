package types

import (
	"sort"
	"time"
)

// ManifestSchemaVersion is the schema version written by this release.
// Version 1 documents (single-kit, top-level file lists) are migrated
// on the first write that touches them.
const ManifestSchemaVersion = 2

// Scope identifies which installation root a manifest describes.
type Scope string

const (
	// ScopeLocal is a project-level installation (manifest lives in the
	// project directory).
	ScopeLocal Scope = "local"

	// ScopeGlobal is the per-user installation under the XDG config home.
	ScopeGlobal Scope = "global"
)

// TrackedFile is one file record inside a kit's manifest entry.
type TrackedFile struct {
	// Path is relative to the installation root, forward slashes,
	// validated before use.
	Path string `json:"path"`

	// Checksum is the content checksum recorded at install or update
	// time, in "sha256:<hex>" form.
	Checksum string `json:"checksum"`

	// BaseChecksum, when present, records the on-disk content at the
	// last sync point for files whose merged content differs from the
	// pristine release (Checksum keeps the release hash). Ownership is
	// classified against BaseChecksum when set, Checksum otherwise.
	BaseChecksum string `json:"baseChecksum,omitempty"`

	// Ownership at the time the record was written. Recomputed from disk
	// whenever a decision depends on it.
	Ownership Ownership `json:"ownership"`

	// InstalledVersion is the kit version that last wrote this file.
	InstalledVersion string `json:"installedVersion,omitempty"`
}

// Baseline returns the checksum ownership classification compares
// against: BaseChecksum when recorded, Checksum otherwise.
func (f TrackedFile) Baseline() string {
	if f.BaseChecksum != "" {
		return f.BaseChecksum
	}
	return f.Checksum
}

// KitMetadata is one kit's entry in a manifest document.
type KitMetadata struct {
	Version     string        `json:"version"`
	InstalledAt time.Time     `json:"installedAt"`
	Type        string        `json:"type,omitempty"`
	Files       []TrackedFile `json:"files,omitempty"`
}

// FileByPath returns the tracked record for path, if any.
func (k KitMetadata) FileByPath(path string) (TrackedFile, bool) {
	for _, f := range k.Files {
		if f.Path == path {
			return f, true
		}
	}
	return TrackedFile{}, false
}

// Metadata is the on-disk manifest document. One document tracks every
// kit installed under a single root.
type Metadata struct {
	SchemaVersion int                    `json:"schemaVersion"`
	Kits          map[string]KitMetadata `json:"kits"`
	Scope         Scope                  `json:"scope,omitempty"`

	// UserConfigFiles lists paths the user has claimed as their own.
	// They are preserved on uninstall regardless of tracking state.
	UserConfigFiles []string `json:"userConfigFiles,omitempty"`

	// Legacy single-kit fields. Retained for display compatibility only;
	// never consulted for ownership decisions and never written back by
	// new installs.
	Name        string `json:"name,omitempty"`
	Version     string `json:"version,omitempty"`
	InstalledAt string `json:"installedAt,omitempty"`
}

// KitIDs returns the installed kit identifiers in sorted order.
func (m *Metadata) KitIDs() []string {
	ids := make([]string, 0, len(m.Kits))
	for id := range m.Kits {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasKit reports whether kitID is present in the document.
func (m *Metadata) HasKit(kitID string) bool {
	_, ok := m.Kits[kitID]
	return ok
}

// IsLegacy reports whether the document predates the multi-kit schema.
func (m *Metadata) IsLegacy() bool {
	return m.SchemaVersion < ManifestSchemaVersion && len(m.Kits) == 0
}
