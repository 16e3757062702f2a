// Package status implements the status command: a read-only report of
// every tracked file's current state against its manifest record.
package status

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/ckit-sh/ckit/pkg/checksum"
	"github.com/ckit-sh/ckit/pkg/errors"
	"github.com/ckit-sh/ckit/pkg/logging"
	"github.com/ckit-sh/ckit/pkg/manifest"
	"github.com/ckit-sh/ckit/pkg/paths"
	"github.com/ckit-sh/ckit/pkg/types"
)

// Options defines the options for the Status command.
type Options struct {
	// Root is the installation root to report on.
	Root string

	// KitID scopes the report to one kit. Empty reports every kit.
	KitID string
}

// Status classifies every tracked file against its current disk
// content. Nothing is written; ownership in each row is the live
// classification, not the one recorded at install time.
func Status(opts Options) (*types.StatusResult, error) {
	log := logging.GetLogger("commands.status")
	log.Debug().Str("command", "Status").Str("root", opts.Root).Str("kit", opts.KitID).Msg("Executing command")

	result := &types.StatusResult{Root: opts.Root}

	meta := manifest.ReadManifest(opts.Root)
	if meta == nil {
		if opts.KitID != "" {
			return nil, errors.Newf(errors.ErrKitNotFound, "kit %q is not installed", opts.KitID)
		}
		return result, nil
	}

	if meta.IsLegacy() {
		name := meta.Name
		if name == "" {
			name = manifest.LegacyKitID
		}
		if opts.KitID != "" && opts.KitID != name {
			return nil, errors.Newf(errors.ErrKitNotFound, "kit %q is not installed", opts.KitID)
		}
		// Pre-tracking documents have no per-file records to verify.
		result.Kits = append(result.Kits, types.KitStatus{Name: name, Version: meta.Version})
		return result, nil
	}

	ids := meta.KitIDs()
	if opts.KitID != "" {
		if !meta.HasKit(opts.KitID) {
			return nil, errors.Newf(errors.ErrKitNotFound, "kit %q is not installed", opts.KitID)
		}
		ids = []string{opts.KitID}
	}

	for _, id := range ids {
		entry := meta.Kits[id]
		status := types.KitStatus{Name: id, Version: entry.Version}
		for _, file := range entry.Files {
			status.Files = append(status.Files, fileStatus(opts.Root, file, log))
		}
		result.Kits = append(result.Kits, status)
	}

	log.Info().Str("command", "Status").Int("kits", len(result.Kits)).Msg("Command finished")
	return result, nil
}

// fileStatus builds one report row by re-classifying the file from
// disk. Verification failures degrade to an unknown state rather than
// failing the whole report.
func fileStatus(root string, file types.TrackedFile, log zerolog.Logger) types.KitFileStatus {
	row := types.KitFileStatus{Path: file.Path, Ownership: file.Ownership}

	abs, err := paths.ValidateSubpath(root, file.Path)
	if err != nil {
		log.Warn().Err(err).Str("path", file.Path).Msg("Tracked path failed validation")
		row.State = types.FileStateUnknown
		return row
	}
	if _, err := os.Stat(abs); err != nil {
		row.State = types.FileStateMissing
		return row
	}

	ownership, err := checksum.ClassifyFile(abs, file)
	if err != nil {
		log.Warn().Err(err).Str("path", file.Path).Msg("Cannot verify file")
		row.State = types.FileStateUnknown
		return row
	}
	row.Ownership = ownership
	if ownership == types.OwnershipKitModified {
		row.State = types.FileStateModified
	} else {
		row.State = types.FileStateOK
	}
	return row
}
