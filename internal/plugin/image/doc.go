// Package image embeds images in documents.
//
// An Image is an inline leaf. Images inserted from a file start as a
// loading placeholder whose src is a data URL preview. The injected
// Uploader runs on a goroutine and its result is posted to the session's
// task queue; the continuation either resolves the placeholder with the
// uploaded address or removes it and reports an *UploadFailure. Upload
// results are remembered per placeholder, so a placeholder that undo or
// redo brings back is finished again outside history.
//
// Images can be moved inside the document by dragging: DRAG_START_COMMAND
// writes a {"data":{"src"},"key"} payload under editor.DragMIME and
// DROP_COMMAND moves the referenced node to the drop target. A drop
// without a target is left to other handlers.
package image
