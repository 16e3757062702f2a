// Package uninstall implements the uninstall command: it removes one
// kit (or every kit) from an installation root, deleting only what the
// ownership analysis allows and pruning directories left empty.
package uninstall

import (
	"path/filepath"

	"github.com/ckit-sh/ckit/pkg/config"
	"github.com/ckit-sh/ckit/pkg/executor"
	"github.com/ckit-sh/ckit/pkg/logging"
	"github.com/ckit-sh/ckit/pkg/manifest"
	"github.com/ckit-sh/ckit/pkg/types"
	analyzer "github.com/ckit-sh/ckit/pkg/uninstall"
)

// Options defines the options for the Uninstall command.
type Options struct {
	// Root is the installation root.
	Root string

	// KitID scopes the removal to one kit. Empty removes everything
	// tracked.
	KitID string

	// Force deletes kit files the user has modified instead of
	// preserving them.
	Force bool

	// DryRun renders the analysis without deleting anything.
	DryRun bool

	// Config supplies tuning knobs. Nil falls back to the defaults.
	Config *config.Config
}

// Result is what an uninstall run did, or on a dry run would do.
type Result struct {
	KitID           string                   `json:"kitId,omitempty"`
	Root            string                   `json:"root"`
	Analysis        *types.UninstallAnalysis `json:"analysis"`
	Operations      []types.Operation        `json:"operations,omitempty"`
	ManifestRemoved bool                     `json:"manifestRemoved,omitempty"`
	DryRun          bool                     `json:"dryRun,omitempty"`
}

// Uninstall analyzes and executes the removal of a kit's files. The
// preserve patterns from the configuration extend the analysis, and
// the manifest entry goes away with the files: removed entirely when
// the last kit leaves, rewritten without the target kit otherwise.
func Uninstall(opts Options) (*Result, error) {
	log := logging.GetLogger("commands.uninstall")
	log.Debug().Str("command", "Uninstall").Str("root", opts.Root).Str("kit", opts.KitID).Msg("Executing command")

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	analysis, err := analyzer.Analyze(analyzer.Options{
		Root:           opts.Root,
		KitID:          opts.KitID,
		ForceOverwrite: opts.Force,
		Preserve:       cfg.Uninstall.Preserve,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		KitID:    opts.KitID,
		Root:     opts.Root,
		Analysis: analysis,
		DryRun:   opts.DryRun,
	}

	ops := buildDeleteOps(analysis.ToDelete)
	result.Operations = ops

	exec, err := executor.New(opts.Root, opts.DryRun)
	if err != nil {
		return nil, err
	}
	if err := exec.Apply(ops); err != nil {
		return nil, err
	}
	if opts.DryRun {
		return result, nil
	}

	// Prune directories the deletions emptied. Targets already absent
	// count too; their record going away is the other half of the
	// cleanup.
	for _, op := range ops {
		if op.Type != types.OperationDeleteFile {
			continue
		}
		if op.Status != types.StatusReady && op.Status != types.StatusSkipped {
			continue
		}
		deleted := filepath.Join(exec.Root(), filepath.FromSlash(op.Target))
		analyzer.CleanupEmptyDirectories(deleted, exec.Root())
	}

	if analysis.RemovesManifest() {
		if err := manifest.DeleteManifest(opts.Root); err != nil {
			return nil, err
		}
		result.ManifestRemoved = true
	} else if opts.KitID != "" {
		if err := manifest.RemoveKit(opts.Root, opts.KitID, cfg.LockOptions()); err != nil {
			return nil, err
		}
	}

	log.Info().
		Str("command", "Uninstall").
		Str("kit", opts.KitID).
		Int("deleted", len(analysis.ToDelete)).
		Int("preserved", len(analysis.ToPreserve)).
		Bool("manifestRemoved", result.ManifestRemoved).
		Msg("Command finished")
	return result, nil
}

// buildDeleteOps turns the analysis deletions into executor operations.
func buildDeleteOps(toDelete []types.FileDisposition) []types.Operation {
	ops := make([]types.Operation, 0, len(toDelete))
	for _, file := range toDelete {
		ops = append(ops, types.Operation{
			Type:        types.OperationDeleteFile,
			Target:      file.Path,
			Description: file.Reason,
			Status:      types.StatusReady,
		})
	}
	return ops
}
