package types

import "time"

// ListKitsResult holds the result of the 'list' command.
type ListKitsResult struct {
	Root string    `json:"root"`
	Kits []KitInfo `json:"kits"`
}

// KitInfo contains summary information about a single installed kit.
type KitInfo struct {
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	InstalledAt time.Time `json:"installedAt"`
	Type        string    `json:"type,omitempty"`
	Files       int       `json:"files"`

	// Legacy marks entries reconstructed from a pre-multi-kit manifest.
	Legacy bool `json:"legacy,omitempty"`
}

// FileState describes the on-disk condition of one tracked file relative
// to the checksums recorded for it.
type FileState string

const (
	// FileStateOK means the file matches its recorded checksum.
	FileStateOK FileState = "ok"

	// FileStateModified means the file exists but its content has drifted
	// from the recorded checksum.
	FileStateModified FileState = "modified"

	// FileStateMissing means the tracked file is no longer on disk.
	FileStateMissing FileState = "missing"

	// FileStateUnknown means the file exists but its content could not be
	// read for verification.
	FileStateUnknown FileState = "unknown"
)

// KitFileStatus is one file row in a status report.
type KitFileStatus struct {
	Path      string    `json:"path"`
	State     FileState `json:"state"`
	Ownership Ownership `json:"ownership"`
}

// KitStatus is one kit's section of a status report.
type KitStatus struct {
	Name    string          `json:"name"`
	Version string          `json:"version"`
	Files   []KitFileStatus `json:"files"`
}

// Clean reports whether every file in the kit matches its recorded state.
func (k KitStatus) Clean() bool {
	for _, f := range k.Files {
		if f.State != FileStateOK {
			return false
		}
	}
	return true
}

// StatusResult holds the result of the 'status' command.
type StatusResult struct {
	Root string      `json:"root"`
	Kits []KitStatus `json:"kits"`
}
