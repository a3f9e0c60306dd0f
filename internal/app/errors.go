// Package app wires configuration, logging, storage and plugins into
// editing sessions.
package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrDocumentNotFound indicates a document was not found.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrUploadTooLarge indicates an upload above upload.maxBytes.
	ErrUploadTooLarge = errors.New("upload too large")

	// ErrNotImage indicates an upload without an image MIME type.
	ErrNotImage = errors.New("upload is not an image")
)

// OperationError represents an error that occurred during a specific operation.
type OperationError struct {
	Op     string // e.g. "open", "create", "upload"
	Target string // document ID or file name
	Err    error
}

func (e *OperationError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
