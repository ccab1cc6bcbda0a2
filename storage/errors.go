package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when a catalog or receipt is not found.
	ErrNotFound = errors.New("record not found")
)
