// Package paths provides centralized path handling for ckit.
// It resolves installation roots for both scopes, implements XDG Base
// Directory compliance for ckit's own files, and validates every
// kit-relative path before it touches the filesystem.
package paths

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/ckit-sh/ckit/pkg/errors"
	"github.com/ckit-sh/ckit/pkg/types"
)

// Environment variable names
const (
	// EnvRoot overrides the local installation root
	EnvRoot = "CKIT_ROOT"

	// EnvGlobalRoot overrides the global installation root
	EnvGlobalRoot = "CKIT_GLOBAL_ROOT"

	// EnvConfigDir overrides the XDG config directory for ckit
	EnvConfigDir = "CKIT_CONFIG_DIR"

	// EnvCacheDir overrides the XDG cache directory for ckit
	EnvCacheDir = "CKIT_CACHE_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Well-known names and limits.
// IMPORTANT: These constants define ckit's on-disk contract and are NOT
// user-configurable. Changing them orphans existing installations.
// User-configurable settings belong in pkg/config instead.
const (
	// CkitDirName is the directory name for ckit-specific files
	CkitDirName = "ckit"

	// ManifestFileName is the manifest document inside an installation root
	ManifestFileName = ".ckit-manifest.json"

	// LockFileSuffix is appended to the manifest path for the lock sidecar
	LockFileSuffix = ".lock"

	// ConfigFileName is the per-root configuration file
	ConfigFileName = "ckit.toml"

	// AltConfigFileName is the hidden variant of the configuration file
	AltConfigFileName = ".ckit.toml"

	// LogFileName is the name of the log file
	LogFileName = "ckit.log"

	// MaxRelPathLength caps kit-relative path length
	MaxRelPathLength = 1024

	// MaxSymlinkDepth bounds symlink chain resolution during validation
	MaxSymlinkDepth = 20
)

// LegacyInstallDirs are the directories pre-manifest installations used.
// Uninstall falls back to them when a manifest has no per-file tracking.
var LegacyInstallDirs = []string{"commands", "agents", "rules", "skills"}

// Paths provides centralized path management for ckit
type Paths interface {
	Root() string
	Scope() types.Scope
	UsedFallback() bool
	ManifestPath() string
	LockPath() string
	ConfigFilePath() string
	ConfigDir() string
	CacheDir() string
	StateDir() string
	LogFilePath() string
}

type paths struct {
	// root is the installation root all operations target
	root string

	// scope records whether root is project-local or the global root
	scope types.Scope

	// xdgConfig is the XDG config directory
	xdgConfig string

	// xdgCache is the XDG cache directory
	xdgCache string

	// xdgState is the XDG state directory
	xdgState string

	// usedFallback indicates if we fell back to cwd (for warning display)
	usedFallback bool
}

// New creates a new Paths instance targeting the given installation
// root. With global set, the root argument is ignored and the per-user
// root is used instead. An empty local root is resolved from the
// environment or defaults.
func New(root string, global bool) (Paths, error) {
	p := &paths{scope: types.ScopeLocal}

	switch {
	case global:
		p.root = GlobalRoot()
		p.scope = types.ScopeGlobal
	case root != "":
		p.root = expandHome(root)
	default:
		resolved, usedFallback, err := findInstallRoot()
		if err != nil {
			return nil, err
		}
		p.root = resolved
		p.usedFallback = usedFallback
	}

	// Ensure the root is absolute
	absRoot, err := filepath.Abs(p.root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to get absolute path for installation root")
	}
	p.root = absRoot

	p.setupXDGDirs()

	return p, nil
}

// GlobalRoot returns the per-user installation root, honoring the
// CKIT_GLOBAL_ROOT override.
func GlobalRoot() string {
	if root := os.Getenv(EnvGlobalRoot); root != "" {
		return expandHome(root)
	}
	return filepath.Join(xdg.ConfigHome, CkitDirName)
}

// setupXDGDirs initializes XDG directories, respecting environment overrides
func (p *paths) setupXDGDirs() {
	// Config directory
	if configDir := os.Getenv(EnvConfigDir); configDir != "" {
		p.xdgConfig = expandHome(configDir)
	} else {
		p.xdgConfig = filepath.Join(xdg.ConfigHome, CkitDirName)
	}

	// Cache directory
	if cacheDir := os.Getenv(EnvCacheDir); cacheDir != "" {
		p.xdgCache = expandHome(cacheDir)
	} else {
		p.xdgCache = filepath.Join(xdg.CacheHome, CkitDirName)
	}

	// State directory - XDG doesn't provide StateHome, so we check manually
	if stateDir := os.Getenv("XDG_STATE_HOME"); stateDir != "" {
		p.xdgState = filepath.Join(stateDir, CkitDirName)
	} else {
		homeDir, _ := os.UserHomeDir()
		p.xdgState = filepath.Join(homeDir, ".local", "state", CkitDirName)
	}
}

// findInstallRoot determines the local installation root using the
// following priority:
// 1. CKIT_ROOT environment variable (if set)
// 2. Git repository root (found via 'git rev-parse --show-toplevel')
// 3. Current working directory (fallback)
//
// The bool result reports whether the cwd fallback was used, so the CLI
// can warn that it guessed.
func findInstallRoot() (string, bool, error) {
	if root := os.Getenv(EnvRoot); root != "" {
		return expandHome(root), false, nil
	}

	gitRoot, err := findGitRoot()
	if err == nil && gitRoot != "" {
		return gitRoot, false, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", false, errors.Wrapf(err, errors.ErrFileAccess, "failed to get current directory")
	}

	return cwd, true, nil
}

// findGitRoot attempts to find the root of the current git repository
func findGitRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")

	output, err := cmd.Output()
	if err != nil {
		// Git command failed - not in a git repo or git not installed
		return "", err
	}

	gitRoot := strings.TrimSpace(string(output))
	if gitRoot == "" {
		return "", errors.New(errors.ErrNotFound, "git root is empty")
	}

	return gitRoot, nil
}

// expandHome expands ~ to the home directory
func expandHome(path string) string {
	if path == "" {
		return path
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			// Fallback to HOME env var
			homeDir = os.Getenv(EnvHome)
			if homeDir == "" {
				// Can't expand, return as-is
				return path
			}
		}

		if len(path) == 1 {
			return homeDir
		}

		// Handle both ~/ and ~
		if path[1] == '/' || path[1] == filepath.Separator {
			return filepath.Join(homeDir, path[2:])
		}

		// ~something (not the user's home)
		return path
	}

	return path
}

// Root returns the installation root all operations target
func (p *paths) Root() string {
	return p.root
}

// Scope returns whether the root is project-local or global
func (p *paths) Scope() types.Scope {
	return p.scope
}

// UsedFallback returns true if the current working directory was used as fallback
func (p *paths) UsedFallback() bool {
	return p.usedFallback
}

// ManifestPath returns the manifest document path inside the root
func (p *paths) ManifestPath() string {
	return filepath.Join(p.root, ManifestFileName)
}

// LockPath returns the manifest lock sidecar path
func (p *paths) LockPath() string {
	return p.ManifestPath() + LockFileSuffix
}

// ConfigFilePath returns the per-root configuration file path
func (p *paths) ConfigFilePath() string {
	return filepath.Join(p.root, ConfigFileName)
}

// ConfigDir returns the XDG config directory for ckit
func (p *paths) ConfigDir() string {
	return p.xdgConfig
}

// CacheDir returns the XDG cache directory for ckit
func (p *paths) CacheDir() string {
	return p.xdgCache
}

// StateDir returns the XDG state directory for ckit
func (p *paths) StateDir() string {
	return p.xdgState
}

// LogFilePath returns the path to ckit's log file
func (p *paths) LogFilePath() string {
	return filepath.Join(p.xdgState, LogFileName)
}
