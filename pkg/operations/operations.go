// Package operations provides helpers for building the file operation
// lists the install, update, and uninstall commands hand to the executor.
package operations

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"

	"github.com/ckit-sh/ckit/pkg/logging"
	"github.com/ckit-sh/ckit/pkg/types"
)

// ParentDirs returns create-dir operations for every directory the given
// root-relative file targets need, deduplicated and ordered parents
// before children.
func ParentDirs(targets []string) []types.Operation {
	seen := make(map[string]bool)
	var dirs []string

	for _, target := range targets {
		dir := path.Dir(filepath.ToSlash(target))
		for dir != "." && dir != "/" && !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
			dir = path.Dir(dir)
		}
	}

	// Lexicographic order puts every directory before its children.
	sort.Strings(dirs)

	ops := make([]types.Operation, 0, len(dirs))
	for _, dir := range dirs {
		ops = append(ops, types.Operation{
			Type:        types.OperationCreateDir,
			Target:      dir,
			Description: fmt.Sprintf("Create directory %s", dir),
			Status:      types.StatusReady,
		})
	}
	return ops
}

// Deduplicate removes duplicate operations from a slice
// Operations are considered duplicates if they have the same type and target
func Deduplicate(ops []types.Operation) []types.Operation {
	if len(ops) <= 1 {
		return ops
	}

	logger := logging.GetLogger("operations")
	seen := make(map[string]bool)
	result := make([]types.Operation, 0, len(ops))

	for _, op := range ops {
		key := string(op.Type) + ":" + op.Target

		if !seen[key] {
			seen[key] = true
			result = append(result, op)
		} else {
			logger.Warn().
				Str("type", string(op.Type)).
				Str("target", op.Target).
				Str("description", op.Description).
				Msg("Skipping duplicate operation")
		}
	}

	return result
}

// CountStatus returns how many operations are in the given state.
func CountStatus(ops []types.Operation, status types.OperationStatus) int {
	n := 0
	for _, op := range ops {
		if op.Status == status {
			n++
		}
	}
	return n
}

// Uint32Ptr returns a pointer to a uint32 value
func Uint32Ptr(v uint32) *uint32 {
	return &v
}
