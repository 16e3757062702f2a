package types

// FileDisposition is one path in an uninstall analysis together with
// the reason it will be deleted or preserved.
type FileDisposition struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// UninstallAnalysis is the full preview of an uninstall. Nothing is
// removed from disk until the caller executes the analysis.
type UninstallAnalysis struct {
	ToDelete   []FileDisposition `json:"toDelete"`
	ToPreserve []FileDisposition `json:"toPreserve"`

	// RemainingKits lists kits still installed after the removal. Empty
	// for a full uninstall or when the target is the last kit.
	RemainingKits []string `json:"remainingKits,omitempty"`

	// Legacy is set when the installation predates per-file tracking and
	// the analysis fell back to directory granularity.
	Legacy bool `json:"legacy,omitempty"`
}

// HasDeletions reports whether executing the analysis would remove
// anything.
func (a *UninstallAnalysis) HasDeletions() bool {
	return len(a.ToDelete) > 0
}

// RemovesManifest reports whether the manifest document itself goes
// away with this uninstall. It stays as long as any kit remains.
func (a *UninstallAnalysis) RemovesManifest() bool {
	return len(a.RemainingKits) == 0
}
