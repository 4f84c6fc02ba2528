package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict means the row changed since it was read, or a second
	// running session was inserted for the same note.
	ErrConflict = errors.New("conflict")
)
