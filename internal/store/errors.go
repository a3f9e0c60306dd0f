package store

import "errors"

// Store errors.
var (
	// ErrNotFound is returned for a missing document or blob.
	ErrNotFound = errors.New("store: not found")

	// ErrInvalidID is returned for an empty or malformed ID.
	ErrInvalidID = errors.New("store: invalid id")

	// ErrNoBasePath is returned when the store has no directory.
	ErrNoBasePath = errors.New("store: base path required")
)
