package task

import "errors"

// Queue errors.
var (
	// ErrClosed indicates the queue no longer accepts tasks.
	ErrClosed = errors.New("task: queue closed")
)
