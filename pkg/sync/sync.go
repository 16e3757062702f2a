// Package sync decides what an update is allowed to do to each
// tracked file. The planner only reads; every write goes through the
// executor after the plan (and any hunk review) is settled.
package sync

import (
	"os"

	"github.com/ckit-sh/ckit/pkg/checksum"
	"github.com/ckit-sh/ckit/pkg/logging"
	"github.com/ckit-sh/ckit/pkg/paths"
	"github.com/ckit-sh/ckit/pkg/types"
)

// Skip and update reasons attached to planned files.
const (
	ReasonUserOwned       = "user-owned file"
	ReasonPathInvalid     = "path validation failed"
	ReasonMissingUpstream = "missing upstream copy"
	ReasonNewFile         = "new file"
	ReasonPristine        = "pristine kit file"
	ReasonUnmodified      = "unmodified since install"
	ReasonModified        = "modified locally"
	ReasonChecksumFailed  = "checksum failed"
)

// CreateSyncPlan partitions a kit's tracked files into what can be
// applied without asking (autoUpdate), what needs interactive hunk
// review first (needsReview), and what this run must not touch
// (skipped). Every tracked file lands in exactly one partition. The
// decision sequence per file:
//
//  1. user-owned records are skipped unconditionally
//  2. the path must validate against both roots (fail closed to skip)
//  3. no upstream copy means nothing to sync from
//  4. no local copy means a safe creation
//  5. otherwise the local content is classified against its recorded
//     baseline: pristine takes the new version automatically, locally
//     modified needs review
//
// The classification in step 5 is always recomputed from disk. A
// record still marked ck whose file was edited after install goes to
// needsReview, not autoUpdate.
func CreateSyncPlan(trackedFiles []types.TrackedFile, localRoot, upstreamRoot string) *types.SyncPlan {
	logger := logging.GetLogger("sync")
	plan := &types.SyncPlan{}

	skip := func(file types.TrackedFile, reason string) {
		plan.Skipped = append(plan.Skipped, types.PlannedFile{TrackedFile: file, Reason: reason})
	}
	auto := func(file types.TrackedFile, reason string) {
		plan.AutoUpdate = append(plan.AutoUpdate, types.PlannedFile{TrackedFile: file, Reason: reason})
	}
	review := func(file types.TrackedFile, reason string) {
		plan.NeedsReview = append(plan.NeedsReview, types.PlannedFile{TrackedFile: file, Reason: reason})
	}

	for _, file := range trackedFiles {
		if file.Ownership == types.OwnershipUser {
			skip(file, ReasonUserOwned)
			continue
		}

		upstreamPath, upErr := paths.ValidateSubpath(upstreamRoot, file.Path)
		localPath, localErr := paths.ValidateSubpath(localRoot, file.Path)
		if upErr != nil || localErr != nil {
			err := upErr
			if err == nil {
				err = localErr
			}
			logger.Warn().Err(err).Str("path", file.Path).Msg("Skipping file, path validation failed")
			skip(file, ReasonPathInvalid)
			continue
		}

		if _, err := os.Stat(upstreamPath); err != nil {
			skip(file, ReasonMissingUpstream)
			continue
		}

		if _, err := os.Stat(localPath); err != nil {
			auto(file, ReasonNewFile)
			continue
		}

		current, err := checksum.CalculateFileChecksum(localPath)
		if err != nil {
			logger.Warn().Err(err).Str("path", file.Path).Msg("Skipping file, checksum failed")
			skip(file, ReasonChecksumFailed)
			continue
		}
		if checksum.Classify(current, file.Checksum, file.BaseChecksum) != types.OwnershipKit {
			review(file, ReasonModified)
			continue
		}
		if file.Ownership == types.OwnershipKit {
			auto(file, ReasonPristine)
		} else {
			auto(file, ReasonUnmodified)
		}
	}

	logger.Debug().
		Int("autoUpdate", len(plan.AutoUpdate)).
		Int("needsReview", len(plan.NeedsReview)).
		Int("skipped", len(plan.Skipped)).
		Msg("Sync plan created")
	return plan
}
