// Package store persists documents and uploaded blobs on disk.
//
// Documents are stored as indented JSON under docs/<id>, blobs under
// blobs/<name>. Watch reports files changed by other processes.
package store
