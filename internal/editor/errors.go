package editor

import "errors"

// Editing errors.
var (
	// ErrNoSelection indicates an edit that needs a range selection.
	ErrNoSelection = errors.New("editor: no range selection")

	// ErrNotBlock indicates a key that does not resolve to a text block.
	ErrNotBlock = errors.New("editor: not a text block")

	// ErrPluginRegistered indicates a plugin used twice on one session.
	ErrPluginRegistered = errors.New("editor: plugin already registered")
)
