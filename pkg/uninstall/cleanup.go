package uninstall

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ckit-sh/ckit/pkg/logging"
)

// CleanupEmptyDirectories walks upward from a deleted file's parent
// toward the installation root, removing each directory level that is
// now empty. It stops at the first non-empty directory and never
// removes the root itself. Best effort: any failure just ends the
// walk.
func CleanupEmptyDirectories(deletedPath, root string) {
	logger := logging.GetLogger("uninstall")

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return
	}
	dir, err := filepath.Abs(filepath.Dir(deletedPath))
	if err != nil {
		return
	}

	for {
		rel, err := filepath.Rel(rootAbs, dir)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return
		}

		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}

		if err := os.Remove(dir); err != nil {
			return
		}
		logger.Debug().Str("dir", dir).Msg("Removed empty directory")
		dir = filepath.Dir(dir)
	}
}
