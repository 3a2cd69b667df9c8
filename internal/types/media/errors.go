package media

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both a missing row and a row owned by someone else.
	ErrNotFound = errors.New("media not found")

	// ErrConflict is returned when a storage key is already taken.
	ErrConflict = errors.New("storage key already exists")

	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFileTooLarge         = errors.New("file too large")
	ErrBatchTooLarge        = errors.New("too many files in batch")

	ErrStorage = errors.New("storage provider error")

	// ErrForeignKey rejects a confirm for a key issued to another user.
	ErrForeignKey = errors.New("storage key does not belong to user")

	// ErrObjectMissing rejects a confirm whose blob was never uploaded.
	ErrObjectMissing = errors.New("uploaded object not found")

	// ErrInvalidUpload rejects a confirm item with a missing or oversized
	// field or a non-positive size.
	ErrInvalidUpload = errors.New("invalid upload")
)

// MaxKeyLength bounds storage keys and original filenames.
const MaxKeyLength = 500

// ValidationError describes a user-correctable upload problem.
type ValidationError struct {
	Err         error // ErrUnsupportedMediaType or ErrFileTooLarge
	ContentType string
	MaxMB       int64
}

func (e *ValidationError) Error() string {
	if errors.Is(e.Err, ErrFileTooLarge) {
		return fmt.Sprintf("File exceeds %dMB limit", e.MaxMB)
	}
	return fmt.Sprintf("Unsupported content type: %s", e.ContentType)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// StorageError wraps a failed object storage call.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}
