package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Path security errors
	ErrPathSecurity    ErrorCode = "PATH_SECURITY"
	ErrSymlinkRejected ErrorCode = "SYMLINK_REJECTED"

	// Diff errors
	ErrDiffApply    ErrorCode = "DIFF_APPLY"
	ErrFileTooLarge ErrorCode = "FILE_TOO_LARGE"
	ErrBinaryFile   ErrorCode = "BINARY_FILE"

	// Checksum errors
	ErrChecksum ErrorCode = "CHECKSUM"

	// Lock errors
	ErrLockAcquisition ErrorCode = "LOCK_ACQUISITION"
	ErrLockStale       ErrorCode = "LOCK_STALE"

	// Manifest errors
	ErrManifestRead   ErrorCode = "MANIFEST_READ"
	ErrManifestWrite  ErrorCode = "MANIFEST_WRITE"
	ErrManifestSchema ErrorCode = "MANIFEST_SCHEMA"
	ErrMigration      ErrorCode = "MIGRATION"

	// Kit errors
	ErrKitNotFound ErrorCode = "KIT_NOT_FOUND"
	ErrKitInvalid  ErrorCode = "KIT_INVALID"

	// Execution errors
	ErrActionInvalid  ErrorCode = "ACTION_INVALID"
	ErrActionExecute  ErrorCode = "ACTION_EXECUTE"
	ErrActionConflict ErrorCode = "ACTION_CONFLICT"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// FileSystem errors
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess   ErrorCode = "FILE_ACCESS"
	ErrFileWrite    ErrorCode = "FILE_WRITE"
	ErrDirCreate    ErrorCode = "DIR_CREATE"
)

// CkitError represents a structured error with code and details
type CkitError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *CkitError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *CkitError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *CkitError) Is(target error) bool {
	var targetErr *CkitError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new CkitError with the given code and message
func New(code ErrorCode, message string) *CkitError {
	return &CkitError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new CkitError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *CkitError {
	return &CkitError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a CkitError
func Wrap(err error, code ErrorCode, message string) *CkitError {
	if err == nil {
		return nil
	}
	return &CkitError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *CkitError {
	if err == nil {
		return nil
	}
	return &CkitError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *CkitError) WithDetail(key string, value interface{}) *CkitError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *CkitError) WithDetails(details map[string]interface{}) *CkitError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var ckitErr *CkitError
	if errors.As(err, &ckitErr) {
		return ckitErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a CkitError
func GetErrorCode(err error) ErrorCode {
	var ckitErr *CkitError
	if errors.As(err, &ckitErr) {
		return ckitErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a CkitError
func GetErrorDetails(err error) map[string]interface{} {
	var ckitErr *CkitError
	if errors.As(err, &ckitErr) {
		return ckitErr.Details
	}
	return nil
}
