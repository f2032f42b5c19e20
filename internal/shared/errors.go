package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness violation.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrVersionConflict occurs when an optimistic-concurrency write loses
	// against a concurrent editor.
	ErrVersionConflict = errors.New("version conflict, reload and retry")
)
