// Package update implements the update command: it syncs a kit's
// installed files with an upstream release, applying what is safe
// automatically and surfacing locally modified files for review.
package update

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ckit-sh/ckit/pkg/config"
	"github.com/ckit-sh/ckit/pkg/diff"
	"github.com/ckit-sh/ckit/pkg/errors"
	"github.com/ckit-sh/ckit/pkg/executor"
	"github.com/ckit-sh/ckit/pkg/kit"
	"github.com/ckit-sh/ckit/pkg/logging"
	"github.com/ckit-sh/ckit/pkg/manifest"
	"github.com/ckit-sh/ckit/pkg/operations"
	"github.com/ckit-sh/ckit/pkg/paths"
	"github.com/ckit-sh/ckit/pkg/sync"
	"github.com/ckit-sh/ckit/pkg/types"
)

// Options defines the options for the Update command.
type Options struct {
	// Root is the installation root being updated.
	Root string

	// KitID identifies the installed kit to update.
	KitID string

	// From is the directory holding the extracted upstream release.
	From string

	// Version records which release this update applies. Defaults to the
	// kit.yaml version, then to the currently installed one.
	Version string

	// DryRun renders the plan without applying anything.
	DryRun bool

	// Config supplies tuning knobs. Nil falls back to the defaults.
	Config *config.Config

	// Progress receives batch tracking progress. May be nil.
	Progress manifest.ProgressFunc
}

// ReviewFile pairs a locally modified file with the hunks the upstream
// release would apply to it. Hunks are nil when the file cannot be
// diffed and has to be reviewed by hand.
type ReviewFile struct {
	Path  string          `json:"path"`
	Hunks []diff.FileHunk `json:"hunks,omitempty"`
}

// Result is what an update run did, or on a dry run would do.
type Result struct {
	KitID      string                `json:"kitId"`
	Version    string                `json:"version"`
	Root       string                `json:"root"`
	Plan       *types.SyncPlan       `json:"plan"`
	Review     []ReviewFile          `json:"review,omitempty"`
	Operations []types.Operation     `json:"operations,omitempty"`
	Tracked    *manifest.TrackResult `json:"tracked,omitempty"`
	DryRun     bool                  `json:"dryRun,omitempty"`
}

// Update plans and applies a sync of one installed kit against an
// upstream release. Files the plan marks autoUpdate are copied and
// re-tracked; files needing review are diffed into hunks and reported
// without being touched. The manifest entry is rewritten only when at
// least one file actually changed hands.
func Update(opts Options) (*Result, error) {
	log := logging.GetLogger("commands.update")
	log.Debug().Str("command", "Update").Str("kit", opts.KitID).Str("from", opts.From).Msg("Executing command")

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	existing := manifest.ReadKitManifest(opts.Root, opts.KitID)
	if existing == nil {
		return nil, errors.Newf(errors.ErrKitNotFound, "kit %q is not installed", opts.KitID)
	}

	upstream, err := kit.Discover(opts.From)
	if err != nil {
		return nil, err
	}
	version := resolveVersion(opts.Version, upstream.Descriptor, existing.Version)

	plan := sync.CreateSyncPlan(existing.Files, opts.Root, upstream.Root)
	result := &Result{
		KitID:   opts.KitID,
		Version: version,
		Root:    opts.Root,
		Plan:    plan,
		Review:  buildReview(plan.NeedsReview, opts.Root, upstream.Root, cfg, log),
		DryRun:  opts.DryRun,
	}

	ops := buildOperations(plan.AutoUpdate, upstream.Root, log)
	result.Operations = ops

	exec, err := executor.New(opts.Root, opts.DryRun)
	if err != nil {
		return nil, err
	}
	// Replacing existing pristine copies is the point of an update.
	if err := exec.EnableOverwrite(true).Apply(ops); err != nil {
		return nil, err
	}
	if opts.DryRun {
		return result, nil
	}

	written := writtenPaths(ops)
	if len(written) == 0 {
		log.Info().Str("kit", opts.KitID).Msg("Nothing to apply, manifest unchanged")
		return result, nil
	}

	store := manifest.NewStore(manifest.Config{
		Root:        opts.Root,
		Concurrency: cfg.Sync.ChecksumConcurrency,
		Lock:        cfg.LockOptions(),
	})
	// Records this run does not rewrite carry over unchanged, reviewed
	// files included.
	store.Seed(existing.Files)
	tracked, err := store.TrackFiles(written, version, opts.Progress)
	if err != nil {
		return nil, err
	}
	result.Tracked = tracked

	scope := types.ScopeLocal
	if meta := manifest.ReadManifest(opts.Root); meta != nil && meta.Scope != "" {
		scope = meta.Scope
	}
	if err := store.WriteManifest(opts.KitID, version, scope, existing.Type); err != nil {
		return nil, err
	}

	log.Info().
		Str("command", "Update").
		Str("kit", opts.KitID).
		Str("version", version).
		Int("updated", tracked.Success).
		Int("review", len(plan.NeedsReview)).
		Msg("Command finished")
	return result, nil
}

// resolveVersion picks the version an update records: the explicit one,
// the kit.yaml one, then whatever is already installed.
func resolveVersion(explicit string, desc *kit.Descriptor, installed string) string {
	if explicit != "" {
		return explicit
	}
	if desc != nil && desc.Version != "" {
		return desc.Version
	}
	return installed
}

// buildOperations plans one copy per auto-update file plus the parent
// directories new files need.
func buildOperations(files []types.PlannedFile, upstreamRoot string, log zerolog.Logger) []types.Operation {
	var fileOps []types.Operation
	var targets []string

	for _, file := range files {
		source, err := paths.ValidateSubpath(upstreamRoot, file.Path)
		if err != nil {
			// The planner validated this path; losing that race just
			// drops the file from this run.
			log.Warn().Err(err).Str("path", file.Path).Msg("Skipping file, path validation failed")
			continue
		}
		fileOps = append(fileOps, types.Operation{
			Type:        types.OperationCopyFile,
			Source:      source,
			Target:      file.Path,
			Description: fmt.Sprintf("Update %s", file.Path),
			Status:      types.StatusReady,
		})
		targets = append(targets, file.Path)
	}

	return append(operations.ParentDirs(targets), fileOps...)
}

// writtenPaths returns the targets of the copy operations that went
// through.
func writtenPaths(ops []types.Operation) []string {
	var written []string
	for _, op := range ops {
		if op.Type == types.OperationCopyFile && op.Status == types.StatusReady {
			written = append(written, op.Target)
		}
	}
	return written
}

// buildReview generates the hunks for every file needing review. A
// file that cannot be diffed (binary, too large, unreadable) is still
// listed, with nil hunks, so it is never silently dropped from the
// report.
func buildReview(files []types.PlannedFile, localRoot, upstreamRoot string, cfg *config.Config, log zerolog.Logger) []ReviewFile {
	if len(files) == 0 {
		return nil
	}

	review := make([]ReviewFile, 0, len(files))
	for _, file := range files {
		entry := ReviewFile{Path: file.Path}
		hunks, err := fileHunks(file.Path, localRoot, upstreamRoot, cfg)
		if err != nil {
			log.Warn().Err(err).Str("path", file.Path).Msg("Cannot diff file, review it manually")
		} else {
			entry.Hunks = hunks
		}
		review = append(review, entry)
	}
	return review
}

func fileHunks(rel, localRoot, upstreamRoot string, cfg *config.Config) ([]diff.FileHunk, error) {
	localPath, err := paths.ValidateSubpath(localRoot, rel)
	if err != nil {
		return nil, err
	}
	upstreamPath, err := paths.ValidateSubpath(upstreamRoot, rel)
	if err != nil {
		return nil, err
	}
	current, err := diff.LoadFileContent(localPath, cfg.Diff.MaxFileSize)
	if err != nil {
		return nil, err
	}
	updated, err := diff.LoadFileContent(upstreamPath, cfg.Diff.MaxFileSize)
	if err != nil {
		return nil, err
	}
	return diff.GenerateHunks(current, updated, rel, cfg.Diff.ContextLines), nil
}
