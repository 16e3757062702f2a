package types

import (
	"io/fs"
)

// FS is the filesystem surface kit discovery and scanning run on.
// Installs are copy-based, so there are no symlink creation methods;
// Lstat exists so scans can recognize and skip links in a source tree.
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Other operations
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error

	// Lstat may fall back to Stat on filesystems without link support.
	Lstat(name string) (fs.FileInfo, error)
}

// Pather provides the directories ckit operates against.
type Pather interface {
	// Root returns the installation root the current command targets.
	Root() string

	// ConfigDir returns the XDG config directory for ckit
	ConfigDir() string

	// CacheDir returns the XDG cache directory for ckit
	CacheDir() string

	// StateDir returns the XDG state directory for ckit
	StateDir() string
}
