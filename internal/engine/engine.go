package engine

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dshills/folio/internal/engine/history"
	"github.com/dshills/folio/internal/node"
	"github.com/dshills/folio/internal/schema"
	"github.com/dshills/folio/internal/selection"
)

// Change describes one published update.
type Change struct {
	Snapshot  *node.Snapshot
	Previous  *node.Snapshot
	Selection selection.Selection

	// Dirty lists keys created or modified by the update. Removed lists keys
	// that no longer exist.
	Dirty   []node.Key
	Removed []node.Key
	Tags    []Tag
}

// HasTag reports whether the change carries tag.
func (c Change) HasTag(tag Tag) bool { return slices.Contains(c.Tags, tag) }

// DocumentChanged reports whether the snapshot was replaced.
func (c Change) DocumentChanged() bool { return c.Snapshot != c.Previous }

// Listener receives published changes.
type Listener func(Change)

// Invariant checks a candidate snapshot before it is published.
type Invariant func(*node.Snapshot) error

type listenerEntry struct {
	id int
	fn Listener
}

type invariantEntry struct {
	name string
	fn   Invariant
}

// Engine owns a document's current snapshot, selection and history.
type Engine struct {
	mu sync.RWMutex

	current *node.Snapshot
	sel     selection.Selection

	reg        *schema.Registry
	history    *history.History
	logger     *slog.Logger
	report     func(error)
	maxHistory int

	tx         *Tx
	listeners  []listenerEntry
	publishing bool
	queued     []Change
	nextID     int
	invariants []invariantEntry
}

// New creates an engine. The initial document is a root with one empty
// paragraph unless WithInitialSnapshot is given.
func New(reg *schema.Registry, opts ...Option) *Engine {
	e := &Engine{
		reg:        reg,
		maxHistory: DefaultMaxHistory,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.reg == nil {
		e.reg = schema.DefaultRegistry()
	}
	if e.current == nil {
		e.current = node.NewDocument()
	}
	e.sel = selection.Validate(e.sel, e.current)
	e.history = history.New(e.maxHistory)
	return e
}

// Registry returns the node type registry.
func (e *Engine) Registry() *schema.Registry { return e.reg }

// Snapshot returns the current published snapshot.
func (e *Engine) Snapshot() *node.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// Selection returns the current published selection.
func (e *Engine) Selection() selection.Selection {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sel
}

// InUpdate reports whether an Update callback is running.
func (e *Engine) InUpdate() bool { return e.tx != nil }

// RegisterInvariant adds a named check run on every commit.
func (e *Engine) RegisterInvariant(name string, fn Invariant) {
	e.invariants = append(e.invariants, invariantEntry{name: name, fn: fn})
}

// Subscribe registers fn for published changes and returns an idempotent
// unsubscribe function. Listeners added during a notification are first
// called on the next publication.
func (e *Engine) Subscribe(fn Listener) func() {
	e.nextID++
	id := e.nextID
	e.listeners = append(slices.Clip(e.listeners), listenerEntry{id: id, fn: fn})
	return func() {
		e.listeners = slices.DeleteFunc(slices.Clone(e.listeners), func(l listenerEntry) bool {
			return l.id == id
		})
	}
}

// Update runs fn in a transaction and commits it.
func (e *Engine) Update(fn func(tx *Tx) error) error {
	if e.tx != nil {
		outer := e.tx
		if err := fn(outer); err != nil {
			outer.fail(err)
			return err
		}
		return nil
	}

	prev := e.Snapshot()
	tx := &Tx{
		Tx:  node.Fork(prev),
		eng: e,
		sel: e.Selection(),
	}
	err := e.run(tx, fn)
	if err == nil {
		err = tx.failed
	}
	if err != nil {
		tx.Tx.Discard()
		return err
	}
	return e.commit(tx, prev)
}

// run calls fn as the outermost callback. A panic discards the working copy
// and is re-raised.
func (e *Engine) run(tx *Tx, fn func(tx *Tx) error) error {
	e.tx = tx
	defer func() {
		e.tx = nil
		if r := recover(); r != nil {
			tx.Tx.Discard()
			e.logger.Error("update panicked; rolled back", "panic", r)
			panic(r)
		}
	}()
	return fn(tx)
}

func (e *Engine) commit(tx *Tx, prev *node.Snapshot) error {
	prevSel := e.Selection()
	if !tx.Changed() && !tx.selDirty {
		tx.Tx.Discard()
		return nil
	}

	next := prev
	var dirty, removed []node.Key
	if tx.Changed() {
		snap, err := tx.Tx.Commit()
		if err != nil {
			return e.reject(&InvariantViolationError{Invariant: StructureInvariant, Err: err})
		}
		dirty = slices.DeleteFunc(tx.Dirty(), func(k node.Key) bool { return !snap.Has(k) })
		removed = tx.Removed()
		for _, inv := range e.invariants {
			if err := inv.fn(snap); err != nil {
				return e.reject(&InvariantViolationError{Invariant: inv.name, Err: err})
			}
		}
		next = snap
	} else {
		tx.Tx.Discard()
	}

	sel := selection.Validate(tx.sel, next)
	if next == prev && selection.Equal(sel, prevSel) {
		return nil
	}

	if next != prev && !tx.HasTag(TagSkipHistory) {
		entry := history.Entry{Snapshot: prev, Selection: prevSel, Label: tx.label}
		if tx.HasTag(TagHistoryMerge) {
			e.history.Merge(entry)
		} else {
			e.history.Push(entry)
		}
	}

	e.publish(Change{
		Snapshot:  next,
		Previous:  prev,
		Selection: sel,
		Dirty:     dirty,
		Removed:   removed,
		Tags:      slices.Clone(tx.tags),
	})
	return nil
}

func (e *Engine) reject(err *InvariantViolationError) error {
	e.logger.Warn("commit rejected; previous snapshot kept",
		"invariant", err.Invariant, "error", err.Err)
	if e.report != nil {
		e.report(err)
	}
	return err
}

// publish makes c current and notifies listeners. Changes committed by a
// listener are queued and delivered after every listener has seen c, so
// listeners observe changes in commit order.
func (e *Engine) publish(c Change) {
	e.mu.Lock()
	e.current = c.Snapshot
	e.sel = c.Selection
	e.mu.Unlock()

	if e.publishing {
		e.queued = append(e.queued, c)
		return
	}
	e.publishing = true
	defer func() {
		e.publishing = false
		e.queued = nil
	}()
	for {
		for _, l := range e.listeners {
			l.fn(c)
		}
		if len(e.queued) == 0 {
			return
		}
		c = e.queued[0]
		e.queued = e.queued[1:]
	}
}

// Undo restores the state before the newest undo entry.
func (e *Engine) Undo() error {
	if e.tx != nil {
		return fmt.Errorf("undo: %w", ErrUpdateInProgress)
	}
	cur := history.Entry{Snapshot: e.Snapshot(), Selection: e.Selection()}
	entry, err := e.history.Undo(cur)
	if err != nil {
		return err
	}
	e.restore(cur.Snapshot, entry, TagUndo)
	return nil
}

// Redo restores the state undone by the newest undo.
func (e *Engine) Redo() error {
	if e.tx != nil {
		return fmt.Errorf("redo: %w", ErrUpdateInProgress)
	}
	cur := history.Entry{Snapshot: e.Snapshot(), Selection: e.Selection()}
	entry, err := e.history.Redo(cur)
	if err != nil {
		return err
	}
	e.restore(cur.Snapshot, entry, TagRedo)
	return nil
}

func (e *Engine) restore(prev *node.Snapshot, entry history.Entry, tag Tag) {
	dirty, removed := Diff(prev, entry.Snapshot)
	e.publish(Change{
		Snapshot:  entry.Snapshot,
		Previous:  prev,
		Selection: selection.Validate(entry.Selection, entry.Snapshot),
		Dirty:     dirty,
		Removed:   removed,
		Tags:      []Tag{tag},
	})
}

// CanUndo returns true if undo is available.
func (e *Engine) CanUndo() bool { return e.history.CanUndo() }

// CanRedo returns true if redo is available.
func (e *Engine) CanRedo() bool { return e.history.CanRedo() }

// UndoCount returns the number of undo entries.
func (e *Engine) UndoCount() int { return e.history.UndoCount() }

// RedoCount returns the number of redo entries.
func (e *Engine) RedoCount() int { return e.history.RedoCount() }

// BeginUndoGroup starts grouping commits into one undo unit.
func (e *Engine) BeginUndoGroup() { e.history.BeginGroup() }

// EndUndoGroup ends the current undo group.
func (e *Engine) EndUndoGroup() { e.history.EndGroup() }

// ClearHistory removes all undo/redo history.
func (e *Engine) ClearHistory() { e.history.Clear() }

// History describes the undo and redo stacks.
func (e *Engine) History() (undo, redo []history.Info) {
	return e.history.UndoInfo(), e.history.RedoInfo()
}

// SetSnapshot replaces the document, validates sel against it, clears
// history and notifies listeners with TagLoad.
func (e *Engine) SetSnapshot(snap *node.Snapshot, sel selection.Selection) error {
	if e.tx != nil {
		return fmt.Errorf("set snapshot: %w", ErrUpdateInProgress)
	}
	for _, inv := range e.invariants {
		if err := inv.fn(snap); err != nil {
			return e.reject(&InvariantViolationError{Invariant: inv.name, Err: err})
		}
	}
	prev := e.Snapshot()
	e.history.Clear()
	dirty, removed := Diff(prev, snap)
	e.publish(Change{
		Snapshot:  snap,
		Previous:  prev,
		Selection: selection.Validate(sel, snap),
		Dirty:     dirty,
		Removed:   removed,
		Tags:      []Tag{TagLoad},
	})
	return nil
}

// Diff returns the keys whose node differs between two snapshots and the
// keys present only in from.
func Diff(from, to *node.Snapshot) (dirty, removed []node.Key) {
	for _, k := range to.Keys() {
		if from.Get(k) != to.Get(k) {
			dirty = append(dirty, k)
		}
	}
	for _, k := range from.Keys() {
		if !to.Has(k) {
			removed = append(removed, k)
		}
	}
	return dirty, removed
}
