package engine

import (
	"log/slog"

	"github.com/dshills/folio/internal/engine/history"
	"github.com/dshills/folio/internal/node"
	"github.com/dshills/folio/internal/selection"
)

// DefaultMaxHistory bounds the undo stack.
const DefaultMaxHistory = history.DefaultMaxEntries

// Option configures an Engine during creation.
type Option func(*Engine)

// WithMaxHistory sets the maximum number of undo entries.
func WithMaxHistory(max int) Option {
	return func(e *Engine) {
		if max > 0 {
			e.maxHistory = max
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithInitialSnapshot sets the starting document.
func WithInitialSnapshot(snap *node.Snapshot) Option {
	return func(e *Engine) {
		if snap != nil {
			e.current = snap
		}
	}
}

// WithInitialSelection sets the starting selection.
func WithInitialSelection(sel selection.Selection) Option {
	return func(e *Engine) {
		e.sel = sel
	}
}

// WithErrorReporter receives every rejected commit.
func WithErrorReporter(fn func(error)) Option {
	return func(e *Engine) {
		e.report = fn
	}
}
