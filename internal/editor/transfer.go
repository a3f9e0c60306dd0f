package editor

import (
	"strings"

	"github.com/dshills/folio/internal/selection"
)

// DragMIME is the transfer type of in-document drag payloads.
const DragMIME = "application/x-folio-drag"

// File is a file carried by a drop or returned by a picker.
type File struct {
	Name string `json:"name"`
	MIME string `json:"mime"`
	Data []byte `json:"data"`
}

// IsImage reports whether the file has an image MIME type.
func (f File) IsImage() bool {
	return strings.HasPrefix(f.MIME, "image/")
}

// DataTransfer is the payload of drag and drop commands. Drag handlers
// write Items; drop handlers read them.
type DataTransfer struct {
	Items map[string]string `json:"items,omitempty"`
	Files []File            `json:"files,omitempty"`

	// Target is where a drop lands. Nil means the current selection.
	Target *selection.Point `json:"target,omitempty"`
}

// Get returns the item stored under mime.
func (d *DataTransfer) Get(mime string) (string, bool) {
	if d == nil {
		return "", false
	}
	v, ok := d.Items[mime]
	return v, ok
}

// Set stores an item.
func (d *DataTransfer) Set(mime, value string) {
	if d.Items == nil {
		d.Items = make(map[string]string)
	}
	d.Items[mime] = value
}
