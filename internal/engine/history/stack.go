package history

import (
	"errors"
	"sync"
	"time"

	"github.com/dshills/folio/internal/node"
	"github.com/dshills/folio/internal/selection"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultMaxEntries bounds the undo stack when no limit is given.
const DefaultMaxEntries = 100

// Entry is one recorded document state.
type Entry struct {
	Snapshot  *node.Snapshot
	Selection selection.Selection

	// Label describes the change that replaced this state.
	Label     string
	Timestamp time.Time
}

// Info describes an entry without exposing its snapshot.
type Info struct {
	Label     string
	Timestamp time.Time
}

// History manages undo/redo state for one document.
type History struct {
	mu sync.Mutex

	undoStack []Entry
	redoStack []Entry

	// Grouping state
	grouping bool
	grouped  bool

	maxEntries int
}

// New creates a history that keeps at most maxEntries undo entries.
func New(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &History{maxEntries: maxEntries}
}

// Push records the state replaced by a commit and clears the redo stack.
func (h *History) Push(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.redoStack = nil
	if h.grouping {
		if h.grouped {
			return
		}
		h.grouped = true
	}
	h.pushLocked(e)
}

func (h *History) pushLocked(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	h.undoStack = append(h.undoStack, e)
	h.trimLocked()
}

func (h *History) trimLocked() {
	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		clear(h.undoStack[:excess])
		h.undoStack = h.undoStack[excess:]
	}
}

// Merge folds a commit into the newest undo unit: the redo stack is cleared
// but nothing is pushed. With an empty undo stack the commit is recorded.
func (h *History) Merge(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.redoStack = nil
	if len(h.undoStack) == 0 {
		h.pushLocked(e)
	}
}

// Undo pops the newest undo entry, pushes current onto the redo stack and
// returns the popped entry.
func (h *History) Undo(current Entry) (Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undoStack) == 0 {
		return Entry{}, ErrNothingToUndo
	}
	entry := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	current.Label = entry.Label
	current.Timestamp = time.Now()
	h.redoStack = append(h.redoStack, current)
	return entry, nil
}

// Redo pops the newest redo entry, pushes current onto the undo stack and
// returns the popped entry.
func (h *History) Redo(current Entry) (Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redoStack) == 0 {
		return Entry{}, ErrNothingToRedo
	}
	entry := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	current.Label = entry.Label
	current.Timestamp = time.Now()
	h.undoStack = append(h.undoStack, current)
	h.trimLocked()
	return entry, nil
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoCount returns the number of undo entries.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoCount returns the number of redo entries.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// BeginGroup starts an undo group. Nested calls are ignored.
func (h *History) BeginGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.grouping {
		return
	}
	h.grouping = true
	h.grouped = false
}

// EndGroup closes the current undo group.
func (h *History) EndGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.grouping = false
	h.grouped = false
}

// IsGrouping returns true if an undo group is open.
func (h *History) IsGrouping() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.grouping
}

// Clear removes all undo/redo history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undoStack = nil
	h.redoStack = nil
	h.grouping = false
	h.grouped = false
}

// UndoInfo describes the undo stack, oldest first.
func (h *History) UndoInfo() []Info {
	h.mu.Lock()
	defer h.mu.Unlock()
	return infos(h.undoStack)
}

// RedoInfo describes the redo stack, oldest first.
func (h *History) RedoInfo() []Info {
	h.mu.Lock()
	defer h.mu.Unlock()
	return infos(h.redoStack)
}

func infos(stack []Entry) []Info {
	result := make([]Info, len(stack))
	for i, e := range stack {
		result[i] = Info{Label: e.Label, Timestamp: e.Timestamp}
	}
	return result
}

// PeekUndo returns the next undo entry without removing it.
func (h *History) PeekUndo() (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undoStack) == 0 {
		return Entry{}, false
	}
	return h.undoStack[len(h.undoStack)-1], true
}

// PeekRedo returns the next redo entry without removing it.
func (h *History) PeekRedo() (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redoStack) == 0 {
		return Entry{}, false
	}
	return h.redoStack[len(h.redoStack)-1], true
}

// SetMaxEntries changes the maximum number of undo entries.
// If the current stack is larger, oldest entries are removed.
func (h *History) SetMaxEntries(max int) {
	if max <= 0 {
		max = DefaultMaxEntries
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.maxEntries = max
	h.trimLocked()
}

// MaxEntries returns the maximum number of undo entries.
func (h *History) MaxEntries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxEntries
}
