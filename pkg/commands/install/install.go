// Package install implements the install command: it copies a kit's
// files into an installation root and records them in the manifest.
package install

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/ckit-sh/ckit/pkg/checksum"
	"github.com/ckit-sh/ckit/pkg/config"
	"github.com/ckit-sh/ckit/pkg/errors"
	"github.com/ckit-sh/ckit/pkg/executor"
	"github.com/ckit-sh/ckit/pkg/kit"
	"github.com/ckit-sh/ckit/pkg/logging"
	"github.com/ckit-sh/ckit/pkg/manifest"
	"github.com/ckit-sh/ckit/pkg/operations"
	"github.com/ckit-sh/ckit/pkg/paths"
	"github.com/ckit-sh/ckit/pkg/types"
)

// Options defines the options for the Install command.
type Options struct {
	// Root is the installation root files are copied into.
	Root string

	// From is the directory holding the extracted upstream kit.
	From string

	// KitID identifies the kit in the manifest. Defaults to the kit.yaml
	// name when the upstream tree carries one.
	KitID string

	// Version records which release is being installed. Defaults to the
	// kit.yaml version.
	Version string

	// Type labels the kit in the manifest. Defaults to the kit.yaml type.
	Type string

	// Scope marks the manifest as a local or global installation. Only
	// consulted when this install creates the manifest.
	Scope types.Scope

	// Force overwrites existing files whose content differs.
	Force bool

	// DryRun previews the operations without touching disk.
	DryRun bool

	// Config supplies tuning knobs. Nil falls back to the defaults.
	Config *config.Config

	// Progress receives batch tracking progress. May be nil.
	Progress manifest.ProgressFunc
}

// Result is what an install run did, or on a dry run would do.
type Result struct {
	KitID      string                `json:"kitId"`
	Version    string                `json:"version"`
	Root       string                `json:"root"`
	Operations []types.Operation     `json:"operations"`
	Tracked    *manifest.TrackResult `json:"tracked,omitempty"`
	DryRun     bool                  `json:"dryRun,omitempty"`
}

// Conflicts reports how many files were left alone because they exist
// with different content and Force was off.
func (r *Result) Conflicts() int {
	return operations.CountStatus(r.Operations, types.StatusConflict)
}

// Install copies a kit's files into the installation root and writes
// the manifest entry for them. A target already holding the released
// content is skipped but still tracked; a target with different
// content is a conflict unless Force is set. Conflicting files stay
// untracked so their content keeps belonging to the user.
func Install(opts Options) (*Result, error) {
	log := logging.GetLogger("commands.install")
	log.Debug().Str("command", "Install").Str("root", opts.Root).Str("from", opts.From).Msg("Executing command")

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	scope := opts.Scope
	if scope == "" {
		scope = types.ScopeLocal
	}

	upstream, err := kit.Discover(opts.From)
	if err != nil {
		return nil, err
	}
	if len(upstream.Files) == 0 {
		return nil, errors.Newf(errors.ErrKitInvalid, "kit source %s contains no files", opts.From)
	}

	kitID, version, kitType := resolveIdentity(opts, upstream.Descriptor)
	if kitID == "" {
		return nil, errors.New(errors.ErrInvalidInput,
			"kit name required: pass one explicitly or add it to kit.yaml")
	}
	if version == "" {
		return nil, errors.New(errors.ErrInvalidInput,
			"kit version required: pass one explicitly or add it to kit.yaml")
	}

	ops, track := buildOperations(upstream, opts.Root, opts.Force, log)

	exec, err := executor.New(opts.Root, opts.DryRun)
	if err != nil {
		return nil, err
	}
	if err := exec.EnableOverwrite(opts.Force).Apply(ops); err != nil {
		return nil, err
	}

	result := &Result{
		KitID:      kitID,
		Version:    version,
		Root:       opts.Root,
		Operations: ops,
		DryRun:     opts.DryRun,
	}
	if opts.DryRun {
		return result, nil
	}

	store := manifest.NewStore(manifest.Config{
		Root:        opts.Root,
		Concurrency: cfg.Sync.ChecksumConcurrency,
		Lock:        cfg.LockOptions(),
	})
	// Carry over records this run does not rewrite, so a re-install with
	// conflicts keeps what is known about them.
	if existing := manifest.ReadKitManifest(opts.Root, kitID); existing != nil {
		store.Seed(existing.Files)
	}
	tracked, err := store.TrackFiles(track, version, opts.Progress)
	if err != nil {
		return nil, err
	}
	result.Tracked = tracked
	if store.Len() == 0 {
		log.Warn().Str("kit", kitID).Msg("Nothing was installed, manifest not written")
		return result, nil
	}
	if err := store.WriteManifest(kitID, version, scope, kitType); err != nil {
		return nil, err
	}

	log.Info().
		Str("command", "Install").
		Str("kit", kitID).
		Str("version", version).
		Int("tracked", tracked.Success).
		Int("conflicts", result.Conflicts()).
		Msg("Command finished")
	return result, nil
}

// resolveIdentity merges the command line identity with the kit.yaml
// descriptor. Explicit values win.
func resolveIdentity(opts Options, desc *kit.Descriptor) (kitID, version, kitType string) {
	kitID, version, kitType = opts.KitID, opts.Version, opts.Type
	if desc == nil {
		return kitID, version, kitType
	}
	if kitID == "" {
		kitID = desc.Name
	}
	if version == "" {
		version = desc.Version
	}
	if kitType == "" {
		kitType = desc.Type
	}
	return kitID, version, kitType
}

// buildOperations plans one copy per upstream file plus the directories
// the new files need. It returns the operations and the paths to track
// once they are applied: everything written this run plus targets that
// already hold the released content.
func buildOperations(upstream *kit.Upstream, root string, force bool, log zerolog.Logger) ([]types.Operation, []string) {
	var fileOps []types.Operation
	var track, created []string

	for _, rel := range upstream.Files {
		source, err := paths.ValidateSubpath(upstream.Root, rel)
		if err != nil {
			log.Warn().Err(err).Str("path", rel).Msg("Skipping file, path validation failed")
			continue
		}
		target, err := paths.ValidateSubpath(root, rel)
		if err != nil {
			log.Warn().Err(err).Str("path", rel).Msg("Skipping file, path validation failed")
			continue
		}

		op := types.Operation{
			Type:        types.OperationCopyFile,
			Source:      source,
			Target:      rel,
			Description: fmt.Sprintf("Install %s", rel),
			Status:      types.StatusReady,
		}
		if _, statErr := os.Lstat(target); statErr == nil {
			op.Status = classifyExisting(source, target, force, log)
		}

		switch op.Status {
		case types.StatusReady:
			track = append(track, rel)
			created = append(created, rel)
		case types.StatusSkipped:
			// Already holding the released content; record it as ours.
			track = append(track, rel)
		}
		fileOps = append(fileOps, op)
	}

	ops := operations.ParentDirs(created)
	return append(ops, fileOps...), track
}

// classifyExisting decides what to do about a target that is already on
// disk. Identical content is already in the desired state; differing
// content is only replaced under force.
func classifyExisting(source, target string, force bool, log zerolog.Logger) types.OperationStatus {
	sourceSum, err := checksum.CalculateFileChecksum(source)
	if err == nil {
		targetSum, targetErr := checksum.CalculateFileChecksum(target)
		if targetErr == nil && targetSum == sourceSum {
			return types.StatusSkipped
		}
	}
	if force {
		return types.StatusReady
	}
	log.Warn().Str("target", target).Msg("Target exists with different content, marking as conflict")
	return types.StatusConflict
}
