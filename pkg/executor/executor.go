package executor

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/synthfs/pkg/synthfs"
	"github.com/arthur-debert/synthfs/pkg/synthfs/core"
	"github.com/arthur-debert/synthfs/pkg/synthfs/filesystem"
	"github.com/arthur-debert/synthfs/pkg/synthfs/operations"
	"github.com/ckit-sh/ckit/pkg/errors"
	"github.com/ckit-sh/ckit/pkg/logging"
	"github.com/ckit-sh/ckit/pkg/paths"
	"github.com/ckit-sh/ckit/pkg/types"
	"github.com/rs/zerolog"
)

// Executor applies planned file operations to an install root using
// synthfs. Every target is re-validated against the root before anything
// touches disk, so a malformed plan cannot write outside it.
type Executor struct {
	logger     zerolog.Logger
	dryRun     bool
	overwrite  bool
	root       string
	filesystem synthfs.FileSystem
}

// New creates an executor bound to the given install root.
func New(root string, dryRun bool) (*Executor, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to resolve install root: %s", root)
	}
	return &Executor{
		logger: logging.GetLogger("executor"),
		dryRun: dryRun,
		root:   abs,
		// Operations carry root-relative targets; they are rebased onto
		// the real filesystem below, so the synthfs root stays at /.
		filesystem: filesystem.NewOSFileSystem("/"),
	}, nil
}

// EnableOverwrite enables or disables overwrite mode. With it enabled,
// copy and write operations replace existing targets; without it they are
// marked as conflicts and skipped.
func (e *Executor) EnableOverwrite(overwrite bool) *Executor {
	e.overwrite = overwrite
	return e
}

// Root returns the absolute install root the executor operates on.
func (e *Executor) Root() string {
	return e.root
}

// Apply executes the ready operations in ops. Statuses are updated in
// place: targets already in the desired state become StatusSkipped, and
// existing files that cannot be overwritten become StatusConflict, so
// callers can report what actually happened after Apply returns.
func (e *Executor) Apply(ops []types.Operation) error {
	if e.dryRun {
		e.logger.Info().Msg("Dry run mode - operations would be executed:")
		for _, op := range ops {
			if op.Status == types.StatusReady {
				e.logOperation(op)
			}
		}
		return nil
	}

	if err := e.prepare(ops); err != nil {
		return err
	}

	// Group operations so directories exist before the pipeline that
	// fills them is validated, and deletions run only after everything
	// else succeeded.
	var dirOps, fileOps, deleteOps []types.Operation
	for _, op := range ops {
		if op.Status != types.StatusReady {
			e.logger.Debug().
				Str("type", string(op.Type)).
				Str("target", op.Target).
				Str("status", string(op.Status)).
				Msg("Skipping operation with non-ready status")
			continue
		}

		switch op.Type {
		case types.OperationCreateDir:
			dirOps = append(dirOps, op)
		case types.OperationDeleteFile:
			deleteOps = append(deleteOps, op)
		default:
			fileOps = append(fileOps, op)
		}
	}

	total := len(dirOps) + len(fileOps) + len(deleteOps)
	if total == 0 {
		e.logger.Info().Msg("No operations to execute")
		return nil
	}

	e.logger.Info().Int("operationCount", total).Msg("Executing operations")

	// 1. Create directories first, one pipeline each, so a child's
	// validation sees the parent created by the previous run.
	if len(dirOps) > 0 {
		e.logger.Debug().Int("count", len(dirOps)).Msg("Executing directory operations")
		for _, op := range dirOps {
			if err := e.runGroup([]types.Operation{op}); err != nil {
				return errors.Wrap(err, errors.ErrActionExecute,
					"failed to create directories")
			}
		}
	}

	// 2. Copy and write files
	if len(fileOps) > 0 {
		e.logger.Debug().Int("count", len(fileOps)).Msg("Executing file operations")
		if err := e.runGroup(fileOps); err != nil {
			return errors.Wrap(err, errors.ErrActionExecute,
				"failed to execute file operations")
		}
	}

	// 3. Delete files only after everything else succeeded
	if len(deleteOps) > 0 {
		e.logger.Debug().Int("count", len(deleteOps)).Msg("Executing delete operations")
		if err := e.runGroup(deleteOps); err != nil {
			return errors.Wrap(err, errors.ErrActionExecute,
				"failed to delete files")
		}
	}

	e.logger.Info().Msg("All operations executed successfully")
	return nil
}

// runGroup converts one batch of ready operations and executes it as a
// single synthfs pipeline.
func (e *Executor) runGroup(ops []types.Operation) error {
	synthOps := make([]synthfs.Operation, 0, len(ops))
	for _, op := range ops {
		synthOp, err := e.convertOperation(op)
		if err != nil {
			return errors.Wrapf(err, errors.ErrActionExecute,
				"failed to convert operation: %s", op.Description)
		}
		synthOps = append(synthOps, synthOp)
	}

	pipeline := synthfs.NewMemPipeline()
	for _, op := range synthOps {
		if err := pipeline.Add(op); err != nil {
			return errors.Wrap(err, errors.ErrActionExecute,
				"failed to add operation to pipeline")
		}
	}

	ctx := context.Background()
	runner := synthfs.NewExecutor()

	result := runner.Run(ctx, pipeline, e.filesystem)
	if result.GetError() != nil {
		e.logger.Error().Err(result.GetError()).Msg("Pipeline execution failed")
		return result.GetError()
	}

	return nil
}

// prepare resolves every ready operation's target and reconciles it with
// what is already on disk. synthfs validation fails on existing targets,
// so anything the plan is allowed to replace is removed here first, and
// anything already in the desired state is marked skipped. Validation of
// the whole batch happens before the first removal, so a malformed plan
// leaves the root untouched.
func (e *Executor) prepare(ops []types.Operation) error {
	targets := make([]string, len(ops))
	for i := range ops {
		op := &ops[i]
		if op.Status != types.StatusReady {
			continue
		}

		target, err := e.resolveTarget(op.Target)
		if err != nil {
			return err
		}
		targets[i] = target

		if op.Type == types.OperationCopyFile {
			if op.Source == "" {
				return errors.New(errors.ErrInvalidInput,
					"copy file operation requires source")
			}
			if !filepath.IsAbs(op.Source) {
				return errors.Newf(errors.ErrInvalidInput,
					"copy file operation requires absolute source: %s", op.Source)
			}
		}
	}

	for i := range ops {
		op := &ops[i]
		if op.Status != types.StatusReady {
			continue
		}
		target := targets[i]

		switch op.Type {
		case types.OperationCreateDir:
			info, err := os.Lstat(target)
			if os.IsNotExist(err) {
				continue
			}
			if err != nil {
				return errors.Wrapf(err, errors.ErrFileAccess,
					"failed to inspect target: %s", op.Target)
			}
			if !info.IsDir() {
				return errors.Newf(errors.ErrActionConflict,
					"cannot create directory over existing file: %s", op.Target)
			}
			e.logger.Debug().
				Str("target", op.Target).
				Msg("Directory already present")
			op.Status = types.StatusSkipped

		case types.OperationCopyFile, types.OperationWriteFile:
			if _, err := os.Lstat(target); err != nil {
				if !os.IsNotExist(err) {
					return errors.Wrapf(err, errors.ErrFileAccess,
						"failed to inspect target: %s", op.Target)
				}
				continue
			}
			if !e.overwrite {
				e.logger.Warn().
					Str("target", op.Target).
					Msg("Target file exists and overwriting is not enabled, marking as conflict")
				op.Status = types.StatusConflict
				continue
			}
			e.logger.Debug().
				Str("target", op.Target).
				Msg("Removing existing file to allow overwrite")
			if err := os.Remove(target); err != nil {
				e.logger.Warn().
					Err(err).
					Str("target", op.Target).
					Msg("Failed to remove existing file before overwrite")
			}

		case types.OperationDeleteFile:
			if _, err := os.Lstat(target); os.IsNotExist(err) {
				e.logger.Debug().
					Str("target", op.Target).
					Msg("Target already absent, nothing to delete")
				op.Status = types.StatusSkipped
			}
		}
	}
	return nil
}

// resolveTarget joins a root-relative target with the install root,
// rejecting anything that would escape it.
func (e *Executor) resolveTarget(target string) (string, error) {
	if target == "" {
		return "", errors.New(errors.ErrInvalidInput,
			"operation requires target")
	}
	return paths.ValidateSubpath(e.root, target)
}

// convertOperation converts a planned operation to a synthfs operation
func (e *Executor) convertOperation(op types.Operation) (synthfs.Operation, error) {
	switch op.Type {
	case types.OperationCreateDir:
		return e.convertCreateDir(op)
	case types.OperationCopyFile:
		return e.convertCopyFile(op)
	case types.OperationWriteFile:
		return e.convertWriteFile(op)
	case types.OperationDeleteFile:
		return e.convertDeleteFile(op)
	default:
		return nil, errors.Newf(errors.ErrActionInvalid,
			"unsupported operation type: %s", op.Type)
	}
}

// convertCreateDir converts a create directory operation
func (e *Executor) convertCreateDir(op types.Operation) (synthfs.Operation, error) {
	target, err := e.resolveTarget(op.Target)
	if err != nil {
		return nil, err
	}

	mode := os.FileMode(0755)
	if op.Mode != nil {
		mode = os.FileMode(*op.Mode)
	}

	e.logger.Debug().
		Str("target", target).
		Str("mode", mode.String()).
		Msg("Creating directory operation")

	// Convert absolute path to relative for synthfs
	relPath, err := filepath.Rel("/", target)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to convert path: %s", target)
	}

	opID := core.OperationID(fmt.Sprintf("create-dir-%s", target))
	createOp := operations.NewCreateDirectoryOperation(opID, relPath)

	// Set the mode via item
	createOp.SetItem(&directoryItem{
		path: relPath,
		mode: mode,
	})

	return synthfs.NewOperationsPackageAdapter(createOp), nil
}

// convertCopyFile converts a copy file operation
func (e *Executor) convertCopyFile(op types.Operation) (synthfs.Operation, error) {
	if op.Source == "" {
		return nil, errors.New(errors.ErrInvalidInput,
			"copy file operation requires source")
	}
	if !filepath.IsAbs(op.Source) {
		return nil, errors.Newf(errors.ErrInvalidInput,
			"copy file operation requires absolute source: %s", op.Source)
	}

	target, err := e.resolveTarget(op.Target)
	if err != nil {
		return nil, err
	}

	e.logger.Debug().
		Str("source", op.Source).
		Str("target", target).
		Msg("Creating copy file operation")

	// Convert paths to relative for synthfs
	relSource, err := filepath.Rel("/", op.Source)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to convert source path: %s", op.Source)
	}
	relTarget, err := filepath.Rel("/", target)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to convert target path: %s", target)
	}

	opID := core.OperationID(fmt.Sprintf("copy-%s-to-%s", filepath.Base(op.Source), target))
	copyOp := operations.NewCopyOperation(opID, relTarget)

	// Set source and destination paths
	copyOp.SetPaths(relSource, relTarget)

	return synthfs.NewOperationsPackageAdapter(copyOp), nil
}

// convertWriteFile converts a write file operation
func (e *Executor) convertWriteFile(op types.Operation) (synthfs.Operation, error) {
	target, err := e.resolveTarget(op.Target)
	if err != nil {
		return nil, err
	}

	mode := os.FileMode(0644)
	if op.Mode != nil {
		mode = os.FileMode(*op.Mode)
	}

	e.logger.Debug().
		Str("target", target).
		Str("mode", mode.String()).
		Int("contentLen", len(op.Content)).
		Msg("Creating write file operation")

	// Convert absolute path to relative for synthfs
	relPath, err := filepath.Rel("/", target)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to convert path: %s", target)
	}

	opID := core.OperationID(fmt.Sprintf("write-file-%s", target))
	createOp := operations.NewCreateFileOperation(opID, relPath)

	// Set the content via item
	createOp.SetItem(&fileItem{
		path:    relPath,
		content: []byte(op.Content),
		mode:    mode,
	})

	return synthfs.NewOperationsPackageAdapter(createOp), nil
}

// convertDeleteFile converts a delete file operation
func (e *Executor) convertDeleteFile(op types.Operation) (synthfs.Operation, error) {
	target, err := e.resolveTarget(op.Target)
	if err != nil {
		return nil, err
	}

	e.logger.Debug().
		Str("target", target).
		Msg("Creating delete file operation")

	// Convert absolute path to relative for synthfs
	relPath, err := filepath.Rel("/", target)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to convert path: %s", target)
	}

	opID := core.OperationID(fmt.Sprintf("delete-%s", target))
	deleteOp := operations.NewDeleteOperation(opID, relPath)

	return synthfs.NewOperationsPackageAdapter(deleteOp), nil
}

// logOperation logs details about an operation
func (e *Executor) logOperation(op types.Operation) {
	logger := e.logger.With().
		Str("type", string(op.Type)).
		Str("description", op.Description).
		Logger()

	switch op.Type {
	case types.OperationCreateDir:
		logger.Info().
			Str("target", op.Target).
			Msg("Would create directory")
	case types.OperationCopyFile:
		logger.Info().
			Str("source", op.Source).
			Str("target", op.Target).
			Msg("Would copy file")
	case types.OperationWriteFile:
		logger.Info().
			Str("target", op.Target).
			Int("contentLen", len(op.Content)).
			Msg("Would write file")
	case types.OperationDeleteFile:
		logger.Info().
			Str("target", op.Target).
			Msg("Would delete file")
	default:
		logger.Info().Msg("Would execute operation")
	}
}

// Item types for synthfs operations

// fileItem implements the interface needed for file operations
type fileItem struct {
	path    string
	content []byte
	mode    fs.FileMode
}

func (f *fileItem) Path() string       { return f.path }
func (f *fileItem) Type() string       { return "file" }
func (f *fileItem) Content() []byte    { return f.content }
func (f *fileItem) Mode() fs.FileMode  { return f.mode }
func (f *fileItem) IsDir() bool        { return false }
func (f *fileItem) ModTime() time.Time { return time.Now() }
func (f *fileItem) Size() int64        { return int64(len(f.content)) }

// directoryItem implements the interface needed for directory operations
type directoryItem struct {
	path string
	mode fs.FileMode
}

func (d *directoryItem) Path() string       { return d.path }
func (d *directoryItem) Type() string       { return "directory" }
func (d *directoryItem) Mode() fs.FileMode  { return d.mode }
func (d *directoryItem) IsDir() bool        { return true }
func (d *directoryItem) ModTime() time.Time { return time.Now() }
func (d *directoryItem) Size() int64        { return 0 }
