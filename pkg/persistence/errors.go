package persistence

import (
	"errors"
	"fmt"
)

// ErrContextNotFound indicates no snapshot exists for the given workflow
// identifier, either because it was never saved or because its TTL elapsed.
var ErrContextNotFound = errors.New("workflow context not found")

// StorageError wraps read/write failures of the backing store with operation
// context. The engine treats these as fatal for the current step.
type StorageError struct {
	Op         string // Operation being performed ("SaveContext", "ContextByID")
	WorkflowID string
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStorageError creates a storage error with operation context.
func NewStorageError(op, workflowID string, err error) *StorageError {
	return &StorageError{
		Op:         op,
		WorkflowID: workflowID,
		Err:        err,
	}
}

// IsContextNotFound checks if an error indicates a missing or expired snapshot.
func IsContextNotFound(err error) bool {
	return errors.Is(err, ErrContextNotFound)
}

// IsStorageError checks if an error stems from the backing store.
func IsStorageError(err error) bool {
	var target *StorageError

	return errors.As(err, &target)
}
