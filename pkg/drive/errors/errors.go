// Package errors defines the error taxonomy shared by every drive component.
//
// Components never leak raw driver or filesystem errors: anything that is not
// one of the domain outcomes below is wrapped as ErrStorageIO. The API layer
// maps codes to HTTP statuses.
package errors

import (
	goerrors "errors"
	"fmt"

	"github.com/marmos91/dittodrive/pkg/controlplane/models"
)

// ErrorCode represents the type of error that occurred.
type ErrorCode int

const (
	// ErrPathTraversal indicates a path containing a ".." segment.
	ErrPathTraversal ErrorCode = iota + 1

	// ErrNotFound indicates the requested entry does not exist.
	ErrNotFound

	// ErrPermissionDenied indicates the actor lacks the required right.
	ErrPermissionDenied

	// ErrAlreadyExists indicates a logical path collision (conflict).
	ErrAlreadyExists

	// ErrTooLarge indicates an upload or batch exceeding its limit.
	ErrTooLarge

	// ErrStorageIO indicates a filesystem or database failure.
	ErrStorageIO

	// ErrInconsistent indicates the filesystem and the database disagree
	// after a failed rollback. Needs operator attention.
	ErrInconsistent

	// ErrInvalidArgument indicates malformed input (bad name, empty batch).
	ErrInvalidArgument
)

// String returns a human-readable name for the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrPathTraversal:
		return "PathTraversal"
	case ErrNotFound:
		return "NotFound"
	case ErrPermissionDenied:
		return "PermissionDenied"
	case ErrAlreadyExists:
		return "AlreadyExists"
	case ErrTooLarge:
		return "TooLarge"
	case ErrStorageIO:
		return "StorageIO"
	case ErrInconsistent:
		return "Inconsistent"
	case ErrInvalidArgument:
		return "InvalidArgument"
	default:
		return fmt.Sprintf("Unknown(%d)", e)
	}
}

// DriveError is an error carrying an ErrorCode.
type DriveError struct {
	Code    ErrorCode
	Message string
	Path    string
	Err     error
}

// Error implements the error interface.
func (e *DriveError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path: %s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *DriveError) Unwrap() error {
	return e.Err
}

// ============================================================================
// Factory Functions
// ============================================================================

// NewPathTraversalError creates a PathTraversal error.
func NewPathTraversalError(path string) *DriveError {
	return &DriveError{Code: ErrPathTraversal, Message: "path traversal is not allowed", Path: path}
}

// NewNotFoundError creates a NotFound error.
func NewNotFoundError(path, resourceType string) *DriveError {
	return &DriveError{Code: ErrNotFound, Message: fmt.Sprintf("%s not found", resourceType), Path: path}
}

// NewPermissionDeniedError creates a PermissionDenied error.
func NewPermissionDeniedError(path string) *DriveError {
	return &DriveError{Code: ErrPermissionDenied, Message: "permission denied", Path: path}
}

// NewAlreadyExistsError creates an AlreadyExists error.
func NewAlreadyExistsError(path string) *DriveError {
	return &DriveError{Code: ErrAlreadyExists, Message: "already exists", Path: path}
}

// NewTooLargeError creates a TooLarge error.
func NewTooLargeError(size, limit int64) *DriveError {
	return &DriveError{
		Code:    ErrTooLarge,
		Message: fmt.Sprintf("size %d exceeds limit %d", size, limit),
	}
}

// NewStorageIOError wraps a filesystem or database failure.
func NewStorageIOError(op string, err error) *DriveError {
	return &DriveError{Code: ErrStorageIO, Message: op, Err: err}
}

// NewInconsistentError reports state left behind by a failed rollback.
func NewInconsistentError(path string, err error) *DriveError {
	return &DriveError{
		Code:    ErrInconsistent,
		Message: "filesystem and database diverged",
		Path:    path,
		Err:     err,
	}
}

// NewInvalidArgumentError creates an InvalidArgument error.
func NewInvalidArgumentError(message string) *DriveError {
	return &DriveError{Code: ErrInvalidArgument, Message: message}
}

// ============================================================================
// Inspection
// ============================================================================

// CodeOf returns the code of the first DriveError in err's chain, or 0.
func CodeOf(err error) ErrorCode {
	var de *DriveError
	if goerrors.As(err, &de) {
		return de.Code
	}
	return 0
}

// IsCode reports whether err carries code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsNotFoundError returns true if the error is a NotFound error.
func IsNotFoundError(err error) bool {
	return IsCode(err, ErrNotFound)
}

// FromStore translates a store error into the taxonomy. DriveErrors pass
// through, store sentinels map to their domain code and everything else
// becomes StorageIO.
func FromStore(err error, path string) error {
	if err == nil {
		return nil
	}
	if CodeOf(err) != 0 {
		return err
	}
	switch {
	case goerrors.Is(err, models.ErrFileNotFound):
		return NewNotFoundError(path, "file")
	case goerrors.Is(err, models.ErrUserNotFound):
		return NewNotFoundError(path, "user")
	case goerrors.Is(err, models.ErrGrantNotFound):
		return NewNotFoundError(path, "permission")
	case goerrors.Is(err, models.ErrDuplicatePath):
		return NewAlreadyExistsError(path)
	default:
		return NewStorageIOError("database", err)
	}
}
