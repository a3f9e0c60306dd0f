package engine

import (
	"slices"

	"github.com/dshills/folio/internal/node"
	"github.com/dshills/folio/internal/schema"
	"github.com/dshills/folio/internal/selection"
)

// Tag marks an update for listeners and history.
type Tag string

// Update tags.
const (
	// TagUndo marks the publication of an undo.
	TagUndo Tag = "undo"
	// TagRedo marks the publication of a redo.
	TagRedo Tag = "redo"
	// TagHistoryMerge folds the commit into the newest undo entry.
	TagHistoryMerge Tag = "history-merge"
	// TagSkipHistory commits without recording undo history.
	TagSkipHistory Tag = "skip-history"
	// TagLoad marks a document replaced by SetSnapshot.
	TagLoad Tag = "load"
)

// Tx is the transaction handed to Update callbacks. It embeds the node
// transaction and adds the pending selection and update tags.
type Tx struct {
	*node.Tx

	eng      *Engine
	sel      selection.Selection
	selDirty bool
	tags     []Tag
	label    string
	failed   error
}

// Registry returns the engine's node type registry.
func (t *Tx) Registry() *schema.Registry { return t.eng.reg }

// Selection returns the pending selection.
func (t *Tx) Selection() selection.Selection { return t.sel }

// SetSelection replaces the pending selection.
func (t *Tx) SetSelection(sel selection.Selection) {
	t.sel = sel
	t.selDirty = true
}

// Range returns the pending selection when it is a range.
func (t *Tx) Range() (selection.Range, bool) {
	return selection.AsRange(t.sel)
}

// AddTag tags the update.
func (t *Tx) AddTag(tag Tag) {
	if !slices.Contains(t.tags, tag) {
		t.tags = append(t.tags, tag)
	}
}

// HasTag reports whether the update carries tag.
func (t *Tx) HasTag(tag Tag) bool { return slices.Contains(t.tags, tag) }

// SetLabel names the update in undo history.
func (t *Tx) SetLabel(label string) {
	if t.label == "" {
		t.label = label
	}
}

// Commit is not available to callbacks. The engine commits when the
// outermost Update callback returns.
func (t *Tx) Commit() (*node.Snapshot, error) {
	return nil, ErrManualCommit
}

// Discard aborts the update. Update returns ErrDiscarded.
func (t *Tx) Discard() {
	t.fail(ErrDiscarded)
}

func (t *Tx) fail(err error) {
	if t.failed == nil {
		t.failed = err
	}
}
