// Package kit discovers the contents of an upstream kit directory:
// the file tree to install plus the optional kit.yaml descriptor
// naming the kit.
package kit

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ckit-sh/ckit/pkg/errors"
	"github.com/ckit-sh/ckit/pkg/filesystem"
	"github.com/ckit-sh/ckit/pkg/logging"
	"github.com/ckit-sh/ckit/pkg/paths"
	"github.com/ckit-sh/ckit/pkg/types"
)

// Descriptor file names probed at the upstream root, in order.
const (
	DescriptorFileName    = "kit.yaml"
	AltDescriptorFileName = "kit.yml"
)

// Descriptor is the optional kit.yaml at the root of an upstream
// tree. All fields may be overridden on the command line.
type Descriptor struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
	Type        string `yaml:"type"`
}

// Upstream is a discovered kit source.
type Upstream struct {
	// Root is the absolute upstream directory.
	Root string

	// Files are the installable paths relative to Root, forward
	// slashes, sorted. The descriptor file itself is excluded.
	Files []string

	// Descriptor is the parsed kit.yaml, nil when the tree has none.
	Descriptor *Descriptor
}

// LoadDescriptor reads kit.yaml (or kit.yml) from a directory on the
// real filesystem.
func LoadDescriptor(dir string) (*Descriptor, error) {
	return LoadDescriptorFS(filesystem.NewOS(), dir)
}

// LoadDescriptorFS reads kit.yaml (or kit.yml) from dir on fsys. A
// missing descriptor is not an error; a malformed one is.
func LoadDescriptorFS(fsys types.FS, dir string) (*Descriptor, error) {
	for _, name := range []string{DescriptorFileName, AltDescriptorFileName} {
		data, err := fsys.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		var desc Descriptor
		if err := yaml.Unmarshal(data, &desc); err != nil {
			return nil, errors.Wrapf(err, errors.ErrKitInvalid, "failed to parse %s", name)
		}
		return &desc, nil
	}
	return nil, nil
}

// Discover walks an upstream directory on the real filesystem.
func Discover(root string) (*Upstream, error) {
	return DiscoverFS(filesystem.NewOS(), root)
}

// DiscoverFS walks an upstream directory on fsys and returns its
// installable files. Hidden directories, symlinks, and manifest
// artifacts are skipped; everything else is fair game, including
// dotfiles a kit ships deliberately.
func DiscoverFS(fsys types.FS, root string) (*Upstream, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrKitInvalid, "cannot resolve kit directory %s", root)
	}
	info, err := fsys.Stat(abs)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrKitInvalid, "kit directory %s not accessible", root)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrKitInvalid, "kit source %s is not a directory", root)
	}

	descriptor, err := LoadDescriptorFS(fsys, abs)
	if err != nil {
		return nil, err
	}

	var files []string
	if err := collectFiles(fsys, abs, abs, &files); err != nil {
		return nil, errors.Wrapf(err, errors.ErrKitInvalid, "failed to read kit directory %s", root)
	}
	sort.Strings(files)

	return &Upstream{Root: abs, Files: files, Descriptor: descriptor}, nil
}

// collectFiles recurses through dir appending installable paths
// relative to root. Hidden subdirectories are pruned, but a hidden
// root itself is allowed.
func collectFiles(fsys types.FS, root, dir string, files *[]string) error {
	logger := logging.GetLogger("kit")

	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			if err := collectFiles(fsys, root, path, files); err != nil {
				return err
			}
			continue
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			logger.Debug().Str("path", path).Msg("Skipping symlink in kit source")
			continue
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if skipUpstreamFile(rel) {
			continue
		}
		*files = append(*files, rel)
	}
	return nil
}

// skipUpstreamFile filters paths that are tooling artifacts rather
// than kit content.
func skipUpstreamFile(rel string) bool {
	switch rel {
	case DescriptorFileName, AltDescriptorFileName:
		return true
	}
	base := rel[strings.LastIndex(rel, "/")+1:]
	return base == paths.ManifestFileName || base == paths.ManifestFileName+paths.LockFileSuffix
}
