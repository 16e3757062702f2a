package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ckit-sh/ckit/pkg/errors"
)

// ValidatePath performs basic validation on a path.
// It checks for:
// - Empty paths
// - Null bytes
// - Excessive path length
func ValidatePath(path string) error {
	if path == "" {
		return errors.New(errors.ErrPathSecurity, "path cannot be empty")
	}

	if strings.Contains(path, "\x00") {
		return errors.New(errors.ErrPathSecurity, "path contains null bytes")
	}

	if len(path) > MaxRelPathLength {
		return errors.Newf(errors.ErrPathSecurity,
			"path exceeds maximum length of %d characters", MaxRelPathLength)
	}

	return nil
}

// ValidateSubpath validates a kit-relative path against an installation
// root and returns the absolute path it resolves to. Every file path
// read from a manifest or an upstream kit passes through here before it
// is used.
//
// The path is rejected when it:
// - is empty, contains null bytes, or exceeds MaxRelPathLength
// - is absolute
// - contains a ".." segment, or normalizes outside the root
// - is or traverses a symlink that points outside the root
// - resolves (via its real path) outside the root's real path
//
// Rejections are per-file: callers skip the offending file, log it, and
// continue with the rest of the batch.
func ValidateSubpath(basePath, relPath string) (string, error) {
	if err := ValidatePath(relPath); err != nil {
		return "", err
	}

	if filepath.IsAbs(relPath) || strings.HasPrefix(relPath, "/") || strings.HasPrefix(relPath, `\`) {
		return "", errors.Newf(errors.ErrPathSecurity,
			"absolute paths are not allowed: %s", relPath).
			WithDetail("path", relPath)
	}

	// Manifest paths use forward slashes regardless of platform.
	for _, segment := range strings.Split(filepath.ToSlash(relPath), "/") {
		if segment == ".." {
			return "", errors.Newf(errors.ErrPathSecurity,
				"directory traversal detected: %s", relPath).
				WithDetail("path", relPath)
		}
	}

	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if escapesRoot(cleaned) {
		return "", errors.Newf(errors.ErrPathSecurity,
			"path normalizes outside the installation root: %s", relPath).
			WithDetail("path", relPath)
	}

	candidate := filepath.Join(basePath, cleaned)

	// Joining must not have escaped either. Join cleans its result, so
	// this catches anything the segment scan missed.
	rel, err := filepath.Rel(basePath, candidate)
	if err != nil || escapesRoot(rel) {
		return "", errors.Newf(errors.ErrPathSecurity,
			"path escapes the installation root: %s", relPath).
			WithDetail("path", relPath).
			WithDetail("root", basePath)
	}

	if err := checkSymlinkChain(basePath, candidate); err != nil {
		return "", err
	}

	if err := checkRealPath(basePath, candidate); err != nil {
		return "", err
	}

	return candidate, nil
}

// checkSymlinkChain walks the symlink chain starting at candidate,
// verifying each hop stays inside basePath. Chains longer than
// MaxSymlinkDepth are rejected outright.
func checkSymlinkChain(basePath, candidate string) error {
	current := candidate

	for depth := 0; depth < MaxSymlinkDepth; depth++ {
		info, err := os.Lstat(current)
		if err != nil {
			if os.IsNotExist(err) {
				// Nothing on disk yet; a file about to be created.
				return nil
			}
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot inspect %s", current)
		}

		if info.Mode()&os.ModeSymlink == 0 {
			return nil
		}

		target, err := os.Readlink(current)
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot read symlink %s", current)
		}

		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(current), target)
		}
		target = filepath.Clean(target)

		rel, err := filepath.Rel(basePath, target)
		if err != nil || escapesRoot(rel) {
			return errors.Newf(errors.ErrPathSecurity,
				"symlink points outside the installation root: %s", current).
				WithDetail("symlink", current).
				WithDetail("target", target)
		}

		current = target
	}

	// Depth budget spent. If the end of the walk is still a symlink the
	// chain is too deep (or cyclic) and we refuse it.
	info, err := os.Lstat(current)
	if err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.Newf(errors.ErrPathSecurity,
			"symlink chain exceeds %d links: %s", MaxSymlinkDepth, candidate).
			WithDetail("path", candidate)
	}

	return nil
}

// checkRealPath compares fully resolved paths, catching escapes through
// symlinked parent directories. A candidate that does not exist yet is
// checked through its parent; a parent that does not exist either has
// nothing to escape through.
func checkRealPath(basePath, candidate string) error {
	baseReal, err := filepath.EvalSymlinks(basePath)
	if err != nil {
		baseReal = filepath.Clean(basePath)
	}

	candidateReal, err := filepath.EvalSymlinks(candidate)
	if err == nil {
		return checkContained(baseReal, candidateReal, candidate)
	}
	if !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot resolve %s", candidate)
	}

	parentReal, err := filepath.EvalSymlinks(filepath.Dir(candidate))
	if err == nil {
		return checkContained(baseReal, parentReal, candidate)
	}
	if os.IsNotExist(err) {
		return nil
	}
	return errors.Wrapf(err, errors.ErrFileAccess, "cannot resolve parent of %s", candidate)
}

func checkContained(baseReal, real, candidate string) error {
	rel, err := filepath.Rel(baseReal, real)
	if err != nil || escapesRoot(rel) {
		return errors.Newf(errors.ErrPathSecurity,
			"real path escapes the installation root: %s", candidate).
			WithDetail("path", candidate).
			WithDetail("resolved", real)
	}
	return nil
}

// escapesRoot reports whether a relative path points at or above its
// base. "..data" is a valid file name, so a plain prefix check is not
// enough.
func escapesRoot(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ValidateKitName ensures a kit identifier is valid for use in paths.
// Kit names must:
// - Not be empty
// - Not contain path separators
// - Not contain special characters that could cause issues
// - Not be reserved names (. or ..)
func ValidateKitName(name string) error {
	if name == "" {
		return errors.New(errors.ErrInvalidInput, "kit name cannot be empty")
	}

	// Check for path separators
	if strings.ContainsAny(name, "/\\") {
		return errors.New(errors.ErrInvalidInput, "kit name cannot contain path separators")
	}

	// Check for reserved names
	if name == "." || name == ".." {
		return errors.New(errors.ErrInvalidInput, "kit name cannot be '.' or '..'")
	}

	// Check for problematic characters
	invalidChars := ":*?\"<>|"
	if strings.ContainsAny(name, invalidChars) {
		return errors.Newf(errors.ErrInvalidInput,
			"kit name contains invalid characters: %s", invalidChars)
	}

	// Check for control characters
	for _, r := range name {
		if r < 32 {
			return errors.New(errors.ErrInvalidInput,
				"kit name contains control characters")
		}
	}

	return nil
}
