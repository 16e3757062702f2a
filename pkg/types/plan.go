package types

// PlannedFile is a tracked file plus the reason it landed in its plan
// bucket. The reason is user-facing text shown by the preview renderer.
type PlannedFile struct {
	TrackedFile
	Reason string `json:"reason,omitempty"`
}

// SyncPlan partitions a kit's tracked files for an update. The three
// buckets are disjoint and together cover every tracked file that was
// considered.
type SyncPlan struct {
	// AutoUpdate holds files safe to take the upstream version of
	// without asking: pristine kit files, files missing locally, and
	// unmodified files.
	AutoUpdate []PlannedFile `json:"autoUpdate"`

	// NeedsReview holds files the user modified since install. They are
	// surfaced hunk by hunk instead of being overwritten.
	NeedsReview []PlannedFile `json:"needsReview"`

	// Skipped holds files the plan will not touch: user-owned files,
	// files whose paths failed validation, and files with no upstream
	// counterpart.
	Skipped []PlannedFile `json:"skipped"`
}

// Total returns how many files the plan covers.
func (p *SyncPlan) Total() int {
	return len(p.AutoUpdate) + len(p.NeedsReview) + len(p.Skipped)
}

// IsEmpty reports whether the plan has no actionable work.
func (p *SyncPlan) IsEmpty() bool {
	return len(p.AutoUpdate) == 0 && len(p.NeedsReview) == 0
}
