package manifest

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ckit-sh/ckit/pkg/checksum"
	"github.com/ckit-sh/ckit/pkg/errors"
	"github.com/ckit-sh/ckit/pkg/lockfile"
	"github.com/ckit-sh/ckit/pkg/logging"
	"github.com/ckit-sh/ckit/pkg/paths"
	"github.com/ckit-sh/ckit/pkg/types"
)

// DefaultConcurrency bounds how many files are hashed at once during
// batch tracking.
const DefaultConcurrency = 20

// progressSteps is roughly how many progress callbacks a batch emits.
const progressSteps = 20

// ProgressFunc receives batch tracking progress. completed counts
// finished files regardless of outcome.
type ProgressFunc func(completed, total int)

// TrackResult summarizes a batch tracking run.
type TrackResult struct {
	Success int
	Failed  int
	Total   int
}

// Config configures a Store.
type Config struct {
	// Root is the install root all tracked paths are relative to.
	Root string

	// Concurrency bounds parallel hashing in TrackFiles. Zero or
	// negative means DefaultConcurrency.
	Concurrency int

	// Lock configures manifest lock acquisition for writes.
	Lock lockfile.Options
}

// Store accumulates tracked file records for one kit and persists
// them into the manifest under an advisory file lock. Records keep
// their insertion order, and re-tracking a path replaces the earlier
// record in place.
type Store struct {
	root        string
	concurrency int
	lockOpts    lockfile.Options
	logger      zerolog.Logger

	mu    sync.Mutex
	order []string
	files map[string]types.TrackedFile
}

// NewStore creates an empty Store for an install root.
func NewStore(cfg Config) *Store {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Store{
		root:        cfg.Root,
		concurrency: concurrency,
		lockOpts:    cfg.Lock,
		logger:      logging.GetLogger("manifest.store"),
		files:       make(map[string]types.TrackedFile),
	}
}

// Root returns the install root the store tracks against.
func (s *Store) Root() string {
	return s.root
}

// Len reports how many files are currently tracked.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// TrackedFiles returns the tracked records in insertion order.
func (s *Store) TrackedFiles() []types.TrackedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.TrackedFile, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.files[key])
	}
	return out
}

// Reset drops all tracked records.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.files = make(map[string]types.TrackedFile)
}

// Seed preloads existing records, typically a kit's current manifest
// entry before an update re-tracks the files it rewrites.
func (s *Store) Seed(files []types.TrackedFile) {
	for _, file := range files {
		file.Path = normalizePath(file.Path)
		s.put(file)
	}
}

func (s *Store) put(file types.TrackedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.files[file.Path]; !exists {
		s.order = append(s.order, file.Path)
	}
	s.files[file.Path] = file
}

// resolveFile validates a relative path and hashes its current disk
// content. It does not touch the store.
func (s *Store) resolveFile(relPath, version string) (types.TrackedFile, error) {
	abs, err := paths.ValidateSubpath(s.root, relPath)
	if err != nil {
		return types.TrackedFile{}, err
	}
	sum, err := checksum.CalculateFileChecksum(abs)
	if err != nil {
		return types.TrackedFile{}, err
	}
	return types.TrackedFile{
		Path:             normalizePath(relPath),
		Checksum:         sum,
		Ownership:        types.OwnershipKit,
		InstalledVersion: version,
	}, nil
}

// TrackFile records one file by hashing its current disk content.
func (s *Store) TrackFile(relPath, version string) error {
	file, err := s.resolveFile(relPath, version)
	if err != nil {
		return err
	}
	s.put(file)
	return nil
}

// TrackMergedFile records a file whose disk content is a merge rather
// than the pristine released content. The record keeps the release
// checksum and pins the merged disk hash as the base for future edit
// detection.
func (s *Store) TrackMergedFile(relPath, version, releaseChecksum string) error {
	file, err := s.resolveFile(relPath, version)
	if err != nil {
		return err
	}
	file.BaseChecksum = file.Checksum
	file.Checksum = releaseChecksum
	file.Ownership = types.OwnershipKitModified
	s.put(file)
	return nil
}

// TrackFiles hashes a batch of files concurrently and records the
// successes. A file that cannot be validated or hashed is logged and
// counted as failed without aborting the batch. Records land in input
// order regardless of completion order, and progress is reported at a
// fixed cadence derived from the batch size.
func (s *Store) TrackFiles(relPaths []string, version string, progress ProgressFunc) (*TrackResult, error) {
	result := &TrackResult{Total: len(relPaths)}
	if len(relPaths) == 0 {
		return result, nil
	}

	type outcome struct {
		file types.TrackedFile
		err  error
	}
	outcomes := make([]outcome, len(relPaths))
	sem := make(chan struct{}, s.concurrency)
	done := make(chan struct{}, len(relPaths))

	for i, rel := range relPaths {
		go func(idx int, rel string) {
			sem <- struct{}{}
			defer func() { <-sem }()
			file, err := s.resolveFile(rel, version)
			outcomes[idx] = outcome{file: file, err: err}
			done <- struct{}{}
		}(i, rel)
	}

	interval := len(relPaths) / progressSteps
	if interval < 1 {
		interval = 1
	}
	for completed := 1; completed <= len(relPaths); completed++ {
		<-done
		if progress != nil && (completed%interval == 0 || completed == len(relPaths)) {
			progress(completed, len(relPaths))
		}
	}

	for idx, out := range outcomes {
		if out.err != nil {
			s.logger.Warn().Err(out.err).Str("path", relPaths[idx]).Msg("Skipping file in batch")
			result.Failed++
			continue
		}
		s.put(out.file)
		result.Success++
	}

	s.logger.Debug().
		Int("success", result.Success).
		Int("failed", result.Failed).
		Int("total", result.Total).
		Msg("Batch tracking finished")
	return result, nil
}

// WriteManifest persists the store's records as one kit's entry in
// the manifest under root. The write holds the manifest lock for its
// whole read-merge-write cycle, migrating a legacy document first so
// other kits' entries survive the merge.
func (s *Store) WriteManifest(kitID, version string, scope types.Scope, kitType string) error {
	manifestPath := Path(s.root)

	guard, err := lockfile.Acquire(manifestPath, s.lockOpts)
	if err != nil {
		return err
	}
	defer func() { _ = guard.Release() }()

	doc := readDocument(s.root)
	if doc == nil {
		doc = &document{Metadata: types.Metadata{
			SchemaVersion: types.ManifestSchemaVersion,
			Kits:          make(map[string]types.KitMetadata),
			Scope:         scope,
		}}
	}
	migrateDocument(doc, s.root)
	if doc.Kits == nil {
		doc.Kits = make(map[string]types.KitMetadata)
	}

	doc.Kits[kitID] = types.KitMetadata{
		Version:     version,
		InstalledAt: time.Now().UTC(),
		Type:        kitType,
		Files:       s.TrackedFiles(),
	}
	doc.SchemaVersion = types.ManifestSchemaVersion
	if doc.Scope == "" {
		doc.Scope = scope
	}

	if err := writeDocument(manifestPath, &doc.Metadata); err != nil {
		return err
	}

	s.logger.Info().
		Str("kit", kitID).
		Str("version", version).
		Int("files", s.Len()).
		Msg("Manifest written")
	return nil
}

// RemoveKit deletes one kit's entry from the manifest under root,
// holding the manifest lock across the read-modify-write. When the
// removed kit was the last one, the caller decides whether to delete
// the document itself.
func RemoveKit(root, kitID string, lockOpts lockfile.Options) error {
	manifestPath := Path(root)

	guard, err := lockfile.Acquire(manifestPath, lockOpts)
	if err != nil {
		return err
	}
	defer func() { _ = guard.Release() }()

	doc := readDocument(root)
	if doc == nil {
		return errors.Newf(errors.ErrKitNotFound, "no manifest found in %s", root)
	}
	migrateDocument(doc, root)
	if !doc.HasKit(kitID) {
		return errors.Newf(errors.ErrKitNotFound, "kit %q is not installed", kitID)
	}

	delete(doc.Kits, kitID)
	return writeDocument(manifestPath, &doc.Metadata)
}

// DeleteManifest removes the manifest document and its lock sidecar.
// Used after the last kit is uninstalled.
func DeleteManifest(root string) error {
	manifestPath := Path(root)
	if err := os.Remove(manifestPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrManifestWrite, "failed to delete manifest %s", manifestPath)
	}
	lockPath := manifestPath + lockfile.Suffix
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		logger := logging.GetLogger("manifest")
		logger.Debug().Err(err).Str("path", lockPath).Msg("Lock sidecar not removed")
	}
	return nil
}
