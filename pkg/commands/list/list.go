// Package list implements the list command.
package list

import (
	"time"

	"github.com/ckit-sh/ckit/pkg/logging"
	"github.com/ckit-sh/ckit/pkg/manifest"
	"github.com/ckit-sh/ckit/pkg/types"
)

// Options defines the options for the List command.
type Options struct {
	// Root is the installation root to list.
	Root string
}

// List reports the kits installed under a root. A root without a
// manifest is an empty installation, not an error.
func List(opts Options) (*types.ListKitsResult, error) {
	log := logging.GetLogger("commands.list")
	log.Debug().Str("command", "List").Str("root", opts.Root).Msg("Executing command")

	result := &types.ListKitsResult{Root: opts.Root}

	meta := manifest.ReadManifest(opts.Root)
	if meta == nil {
		return result, nil
	}

	if meta.IsLegacy() {
		result.Kits = append(result.Kits, legacyInfo(meta))
		return result, nil
	}

	for _, id := range meta.KitIDs() {
		entry := meta.Kits[id]
		result.Kits = append(result.Kits, types.KitInfo{
			Name:        id,
			Version:     entry.Version,
			InstalledAt: entry.InstalledAt,
			Type:        entry.Type,
			Files:       len(entry.Files),
		})
	}

	log.Info().Str("command", "List").Int("kits", len(result.Kits)).Msg("Command finished")
	return result, nil
}

// legacyInfo reconstructs a listing entry from a pre-multi-kit
// document, under the same identifier migration would give it.
func legacyInfo(meta *types.Metadata) types.KitInfo {
	info := types.KitInfo{
		Name:    meta.Name,
		Version: meta.Version,
		Legacy:  true,
	}
	if info.Name == "" {
		info.Name = manifest.LegacyKitID
	}
	if meta.InstalledAt != "" {
		if parsed, err := time.Parse(time.RFC3339, meta.InstalledAt); err == nil {
			info.InstalledAt = parsed
		}
	}
	return info
}
