package types

// OperationType defines the type of file system operation
type OperationType string

const (
	// OperationCreateDir creates a directory
	OperationCreateDir OperationType = "create_dir"

	// OperationCopyFile copies a file into the install root
	OperationCopyFile OperationType = "copy_file"

	// OperationWriteFile writes content to a file
	OperationWriteFile OperationType = "write_file"

	// OperationDeleteFile deletes a file
	OperationDeleteFile OperationType = "delete_file"
)

// OperationStatus defines the state of an operation
type OperationStatus string

const (
	// StatusReady means the operation is ready to be executed
	StatusReady OperationStatus = "ready"
	// StatusSkipped means the operation was skipped (e.g., the target is
	// already in the desired state)
	StatusSkipped OperationStatus = "skipped"
	// StatusConflict means the operation cannot be performed because the
	// target exists with different content and overwriting is not allowed
	StatusConflict OperationStatus = "conflict"
	// StatusError means the operation resulted in an error
	StatusError OperationStatus = "error"
)

// Operation represents a low-level file system operation produced by the
// install, update, and uninstall planners and applied by the executor.
type Operation struct {
	// Type is the type of operation
	Type OperationType

	// Source is the absolute path content is copied from. It points into
	// the upstream kit tree and may live outside the install root.
	Source string

	// Target is the path acted on, relative to the install root. The
	// executor re-validates it against the root before touching disk.
	Target string

	// Content is the content to write (for write operations)
	Content string

	// Mode is the file permissions (optional)
	Mode *uint32

	// Description is a human-readable description
	Description string

	// Status is the current state of the operation
	Status OperationStatus
}
