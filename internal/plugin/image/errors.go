package image

import (
	"errors"
	"fmt"

	"github.com/dshills/folio/internal/node"
)

// Image errors.
var (
	// ErrNoUploader indicates a file insert on a plugin without an Uploader.
	ErrNoUploader = errors.New("image: no uploader configured")

	// ErrEmptyAddress indicates an upload that returned no address.
	ErrEmptyAddress = errors.New("image: upload returned an empty address")

	// ErrMissingSource indicates an insert without src or file.
	ErrMissingSource = errors.New("image: src or file required")
)

// UploadFailure reports an upload that did not produce an address. The
// placeholder identified by Key has been removed when it is delivered.
type UploadFailure struct {
	Key  node.Key
	File string
	Err  error
}

func (e *UploadFailure) Error() string {
	return fmt.Sprintf("image: upload of %q failed: %v", e.File, e.Err)
}

func (e *UploadFailure) Unwrap() error { return e.Err }
