package manifest

import (
	"sort"

	"github.com/ckit-sh/ckit/pkg/errors"
	"github.com/ckit-sh/ckit/pkg/paths"
	"github.com/ckit-sh/ckit/pkg/types"
)

// UninstallManifest is the file view an uninstall works from: the
// files belonging to the target selection, the ones excluded because
// another kit still references them, and what remains afterwards.
type UninstallManifest struct {
	// Files are the candidate files for removal analysis.
	Files []types.TrackedFile

	// SharedFiles are files the target kit tracks but another kit
	// still references. They are never removal candidates.
	SharedFiles []types.TrackedFile

	// RemainingKits lists the kits that stay installed afterwards.
	RemainingKits []string

	// UserConfigFiles are the paths the manifest marks as user-claimed.
	// They are preserved regardless of tracking state.
	UserConfigFiles []string

	// Legacy marks an installation without per-file tracking. Files
	// is empty and LegacyDirs carries the coarse fallback targets.
	Legacy bool

	// LegacyDirs are the well-known top-level directories a legacy
	// uninstall sweeps.
	LegacyDirs []string
}

// GetUninstallManifest resolves which files an uninstall should
// consider. With a kitID it scopes to that kit and excludes files
// shared with other kits; with an empty kitID it covers every kit's
// files for a full uninstall. Documents without per-file tracking
// (and roots without a manifest at all) fall back to the fixed legacy
// directory list.
func GetUninstallManifest(root, kitID string) (*UninstallManifest, error) {
	meta := ReadManifest(root)
	if meta == nil || meta.IsLegacy() {
		// A legacy document tracks at most one kit; a named request
		// only matches that kit. Full uninstalls always sweep.
		if kitID != "" && (meta == nil || meta.Name != kitID) {
			return nil, errors.Newf(errors.ErrKitNotFound, "kit %q is not installed", kitID)
		}
		view := &UninstallManifest{
			Legacy:     true,
			LegacyDirs: paths.LegacyInstallDirs,
		}
		if meta != nil {
			view.UserConfigFiles = meta.UserConfigFiles
		}
		return view, nil
	}

	if kitID == "" {
		return fullUninstallManifest(meta), nil
	}

	kit, ok := meta.Kits[kitID]
	if !ok {
		return nil, errors.Newf(errors.ErrKitNotFound, "kit %q is not installed", kitID)
	}

	otherPaths := make(map[string]bool)
	var remaining []string
	for id, other := range meta.Kits {
		if id == kitID {
			continue
		}
		remaining = append(remaining, id)
		for _, file := range other.Files {
			otherPaths[normalizePath(file.Path)] = true
		}
	}
	sort.Strings(remaining)

	view := &UninstallManifest{
		RemainingKits:   remaining,
		UserConfigFiles: meta.UserConfigFiles,
	}
	for _, file := range kit.Files {
		file.Path = normalizePath(file.Path)
		if otherPaths[file.Path] {
			view.SharedFiles = append(view.SharedFiles, file)
			continue
		}
		view.Files = append(view.Files, file)
	}
	return view, nil
}

// fullUninstallManifest unions every kit's files, deduplicated by
// path. Kits are visited in sorted order so the result is stable.
func fullUninstallManifest(meta *types.Metadata) *UninstallManifest {
	view := &UninstallManifest{UserConfigFiles: meta.UserConfigFiles}
	seen := make(map[string]bool)
	for _, id := range meta.KitIDs() {
		for _, file := range meta.Kits[id].Files {
			file.Path = normalizePath(file.Path)
			if seen[file.Path] {
				continue
			}
			seen[file.Path] = true
			view.Files = append(view.Files, file)
		}
	}
	return view
}
