// Package uninstall decides what an uninstall may remove and what it
// must leave behind, and cleans up emptied directories afterwards.
// Like the sync planner it only reads; deletion happens in the
// executor once the analysis is approved.
package uninstall

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ckit-sh/ckit/pkg/checksum"
	"github.com/ckit-sh/ckit/pkg/logging"
	"github.com/ckit-sh/ckit/pkg/manifest"
	"github.com/ckit-sh/ckit/pkg/paths"
	"github.com/ckit-sh/ckit/pkg/types"
)

// Disposition reasons attached to analyzed files.
const (
	ReasonPristine        = "pristine kit file"
	ReasonForceOverwrite  = "force overwrite"
	ReasonModified        = "modified by user"
	ReasonUserOwned       = "user-owned file"
	ReasonUserConfig      = "user config file"
	ReasonShared          = "shared with other kit"
	ReasonPathInvalid     = "path validation failed"
	ReasonMissing         = "file not found on disk"
	ReasonChecksumFailed  = "checksum failed"
	ReasonLegacyDir       = "legacy kit directory"
	ReasonPreservePattern = "matches preserve pattern"
)

// Options select what to analyze.
type Options struct {
	// Root is the installation root.
	Root string

	// KitID scopes the analysis to one kit. Empty analyzes a full
	// uninstall of everything tracked.
	KitID string

	// ForceOverwrite deletes user-modified kit files instead of
	// preserving them.
	ForceOverwrite bool

	// Preserve holds additional glob patterns (matched against the
	// relative path and its base name) whose matches are never deleted.
	Preserve []string
}

// Analyze previews an uninstall without touching disk. Files shared
// with other kits and user-claimed config files are preserved before
// any content inspection; the rest are classified from disk the same
// way the sync planner classifies them, failing closed to preserve on
// any doubt. A tracked file already gone from disk lands in toDelete
// so its record is still cleared.
func Analyze(opts Options) (*types.UninstallAnalysis, error) {
	logger := logging.GetLogger("uninstall")

	view, err := manifest.GetUninstallManifest(opts.Root, opts.KitID)
	if err != nil {
		return nil, err
	}

	analysis := &types.UninstallAnalysis{
		RemainingKits: view.RemainingKits,
		Legacy:        view.Legacy,
	}

	userConfig := make(map[string]bool, len(view.UserConfigFiles))
	for _, p := range view.UserConfigFiles {
		userConfig[filepath.ToSlash(p)] = true
	}

	if view.Legacy {
		analyzeLegacy(opts, view.LegacyDirs, userConfig, analysis, logger)
		return analysis, nil
	}

	for _, file := range view.SharedFiles {
		markPreserve(analysis, file.Path, ReasonShared)
	}

	for _, file := range view.Files {
		analyzeFile(opts, userConfig, file, analysis, logger)
	}

	logger.Debug().
		Int("toDelete", len(analysis.ToDelete)).
		Int("toPreserve", len(analysis.ToPreserve)).
		Bool("force", opts.ForceOverwrite).
		Msg("Uninstall analyzed")
	return analysis, nil
}

func markPreserve(analysis *types.UninstallAnalysis, path, reason string) {
	analysis.ToPreserve = append(analysis.ToPreserve, types.FileDisposition{Path: path, Reason: reason})
}

func markDelete(analysis *types.UninstallAnalysis, path, reason string) {
	analysis.ToDelete = append(analysis.ToDelete, types.FileDisposition{Path: path, Reason: reason})
}

func analyzeFile(opts Options, userConfig map[string]bool, file types.TrackedFile, analysis *types.UninstallAnalysis, logger zerolog.Logger) {
	if userConfig[file.Path] {
		markPreserve(analysis, file.Path, ReasonUserConfig)
		return
	}
	if matchesPreserve(opts.Preserve, file.Path) {
		markPreserve(analysis, file.Path, ReasonPreservePattern)
		return
	}
	if file.Ownership == types.OwnershipUser {
		markPreserve(analysis, file.Path, ReasonUserOwned)
		return
	}

	abs, err := paths.ValidateSubpath(opts.Root, file.Path)
	if err != nil {
		logger.Warn().Err(err).Str("path", file.Path).Msg("Preserving file, path validation failed")
		markPreserve(analysis, file.Path, ReasonPathInvalid)
		return
	}

	if _, err := os.Lstat(abs); err != nil {
		// Already gone; deleting clears the record and tolerates ENOENT.
		markDelete(analysis, file.Path, ReasonMissing)
		return
	}

	current, err := checksum.CalculateFileChecksum(abs)
	if err != nil {
		logger.Warn().Err(err).Str("path", file.Path).Msg("Preserving file, checksum failed")
		markPreserve(analysis, file.Path, ReasonChecksumFailed)
		return
	}

	switch checksum.Classify(current, file.Checksum, file.BaseChecksum) {
	case types.OwnershipKit:
		markDelete(analysis, file.Path, ReasonPristine)
	case types.OwnershipKitModified:
		if opts.ForceOverwrite {
			markDelete(analysis, file.Path, ReasonForceOverwrite)
		} else {
			markPreserve(analysis, file.Path, ReasonModified)
		}
	default:
		markPreserve(analysis, file.Path, ReasonUserOwned)
	}
}

// analyzeLegacy handles installations without per-file tracking: every
// file under the well-known kit directories is a deletion candidate
// unless it matches the preserve allowlist or a user-claimed config
// path.
func analyzeLegacy(opts Options, legacyDirs []string, userConfig map[string]bool, analysis *types.UninstallAnalysis, logger zerolog.Logger) {
	for _, dir := range legacyDirs {
		dirAbs := filepath.Join(opts.Root, dir)
		info, err := os.Lstat(dirAbs)
		if err != nil || !info.IsDir() {
			continue
		}

		walkErr := filepath.WalkDir(dirAbs, func(walked string, entry fs.DirEntry, err error) error {
			if err != nil || entry.IsDir() {
				return nil
			}
			rel, relErr := filepath.Rel(opts.Root, walked)
			if relErr != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)
			if userConfig[rel] {
				markPreserve(analysis, rel, ReasonUserConfig)
				return nil
			}
			if preservedByPattern(filepath.Base(walked)) || matchesPreserve(opts.Preserve, rel) {
				markPreserve(analysis, rel, ReasonPreservePattern)
				return nil
			}
			markDelete(analysis, rel, ReasonLegacyDir)
			return nil
		})
		if walkErr != nil {
			logger.Warn().Err(walkErr).Str("dir", dir).Msg("Legacy directory walk failed")
		}
	}
}

// preservedByPattern implements the builtin legacy preserve allowlist:
// dotfiles and anything following the name.local.ext convention.
func preservedByPattern(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	return strings.Contains(name, ".local.")
}

// matchesPreserve reports whether rel matches any configured preserve
// pattern. Patterns are shell globs tried against the relative path and
// against its base name; malformed patterns match nothing.
func matchesPreserve(patterns []string, rel string) bool {
	base := path.Base(rel)
	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
