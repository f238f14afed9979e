package domain

import "errors"

// Store-level sentinels shared by every catalog implementation.
var (
	// ErrNotFound is returned when no document exists for a key.
	ErrNotFound = errors.New("not found")

	// ErrStaleWrite is returned when a conditional update lost a race with a
	// concurrent writer (e.g. two regenerations of the same product).
	ErrStaleWrite = errors.New("stale write")
)
