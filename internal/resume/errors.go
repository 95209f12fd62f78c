package resume

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means neither the exact lookup nor the fallback search found the file.
	ErrNotFound = errors.New("resume file not found")
	// ErrInvalidReference means the stored reference cannot name a resume object.
	ErrInvalidReference = errors.New("invalid resume reference")
)

// StorageError wraps a failure talking to the object store.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("object storage %s failed: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}
