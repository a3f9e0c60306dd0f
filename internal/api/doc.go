// Package api serves folio documents over HTTP.
//
// Routes:
//
//	GET    /health
//	GET    /api/documents
//	POST   /api/documents                      body: optional markdown
//	GET    /api/documents/{id}                 serialized document
//	DELETE /api/documents/{id}
//	GET    /api/documents/{id}/html
//	GET    /api/documents/{id}/markdown
//	GET    /api/documents/{id}/metrics         when editor.metrics is on
//	POST   /api/documents/{id}/commands/{cmd}  body: JSON payload
//	POST   /api/documents/{id}/undo
//	POST   /api/documents/{id}/redo
//	GET    /blobs/{name}
//
// Each open document is held in one session. Requests for the same
// document are serialized.
package api
