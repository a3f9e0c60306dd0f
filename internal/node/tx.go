package node

import (
	"fmt"
	"maps"
	"slices"
)

// Tx is a working copy of a snapshot that accepts mutations until it is
// committed or discarded.
type Tx struct {
	tree
	base     *Snapshot
	dirty    map[Key]struct{}
	removed  map[Key]struct{}
	detached map[Key]struct{}
	closed   bool
}

// Fork starts a transaction against snap.
func Fork(snap *Snapshot) *Tx {
	return &Tx{
		tree: tree{
			nodes: maps.Clone(snap.nodes),
			root:  snap.root,
		},
		base:     snap,
		dirty:    make(map[Key]struct{}),
		removed:  make(map[Key]struct{}),
		detached: make(map[Key]struct{}),
	}
}

// Base returns the snapshot the transaction was forked from.
func (tx *Tx) Base() *Snapshot { return tx.base }

// Closed reports whether the transaction has been committed or discarded.
func (tx *Tx) Closed() bool { return tx.closed }

func (tx *Tx) check() error {
	if tx.closed {
		return fmt.Errorf("%w: transaction closed", ErrIllegalMutation)
	}
	return nil
}

// Writable returns a writable instance of key, cloning it into the working
// copy on first use.
func (tx *Tx) Writable(key Key) (Node, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	n := tx.nodes[key]
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, key)
	}
	if !n.IsFrozen() {
		tx.dirty[key] = struct{}{}
		return n, nil
	}
	c := n.Clone()
	tx.nodes[key] = c
	tx.dirty[key] = struct{}{}
	return c, nil
}

func (tx *Tx) writableElement(key Key) (*ElementBase, error) {
	n, err := tx.Writable(key)
	if err != nil {
		return nil, err
	}
	e, ok := n.(Element)
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNotElement, key, n.Type())
	}
	return e.element(), nil
}

// Create adds a new, parentless node to the working copy so that children
// can be appended to it before it is inserted. Nodes that are still
// parentless at commit are dropped.
func (tx *Tx) Create(n Node) error {
	if err := tx.check(); err != nil {
		return err
	}
	if _, ok := tx.nodes[n.Key()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, n.Key())
	}
	if n.Parent() != "" {
		return fmt.Errorf("%w: %s is owned by %s", ErrReparent, n.Key(), n.Parent())
	}
	if n.IsFrozen() {
		return fmt.Errorf("%w: %s is frozen", ErrIllegalMutation, n.Key())
	}
	tx.nodes[n.Key()] = n
	tx.dirty[n.Key()] = struct{}{}
	tx.detached[n.Key()] = struct{}{}
	delete(tx.removed, n.Key())
	return nil
}

// Append inserts n as the last child of parent.
func (tx *Tx) Append(parent Key, n Node) error {
	return tx.InsertAt(parent, -1, n)
}

// InsertAt inserts n at index among parent's children. A negative or
// out-of-range index appends.
func (tx *Tx) InsertAt(parent Key, index int, n Node) error {
	if err := tx.check(); err != nil {
		return err
	}
	key := n.Key()
	if key == tx.root {
		return ErrRootImmutable
	}
	existing, inTree := tx.nodes[key]
	if inTree {
		if existing.Parent() != "" {
			return fmt.Errorf("%w: %s is owned by %s", ErrReparent, key, existing.Parent())
		}
	} else {
		if err := tx.Create(n); err != nil {
			return err
		}
	}
	if key == parent || tx.IsAncestor(key, parent) {
		return fmt.Errorf("%w: %s under %s", ErrCycle, key, parent)
	}
	pe, err := tx.writableElement(parent)
	if err != nil {
		return err
	}
	child, err := tx.Writable(key)
	if err != nil {
		return err
	}
	if index < 0 || index > len(pe.children) {
		index = len(pe.children)
	}
	pe.children = slices.Insert(pe.children, index, key)
	child.base().parent = parent
	delete(tx.detached, key)
	return nil
}

// InsertBefore inserts n as the sibling preceding ref.
func (tx *Tx) InsertBefore(ref Key, n Node) error {
	p, i, err := tx.position(ref)
	if err != nil {
		return err
	}
	return tx.InsertAt(p, i, n)
}

// InsertAfter inserts n as the sibling following ref.
func (tx *Tx) InsertAfter(ref Key, n Node) error {
	p, i, err := tx.position(ref)
	if err != nil {
		return err
	}
	return tx.InsertAt(p, i+1, n)
}

func (tx *Tx) position(key Key) (Key, int, error) {
	n := tx.nodes[key]
	if n == nil {
		return "", 0, fmt.Errorf("%w: %s", ErrNodeNotFound, key)
	}
	if key == tx.root {
		return "", 0, ErrRootImmutable
	}
	if n.Parent() == "" {
		return "", 0, fmt.Errorf("%w: %s is detached", ErrNodeNotFound, key)
	}
	return n.Parent(), tx.IndexOf(key), nil
}

// Detach unlinks key from its parent and returns the writable node. The
// node and its subtree stay in the working copy until re-inserted or
// committed.
func (tx *Tx) Detach(key Key) (Node, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	if key == tx.root {
		return nil, ErrRootImmutable
	}
	n := tx.nodes[key]
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, key)
	}
	if p := n.Parent(); p != "" {
		pe, err := tx.writableElement(p)
		if err != nil {
			return nil, err
		}
		if i := slices.Index(pe.children, key); i >= 0 {
			pe.children = slices.Delete(pe.children, i, i+1)
		}
	}
	w, err := tx.Writable(key)
	if err != nil {
		return nil, err
	}
	w.base().parent = ""
	tx.detached[key] = struct{}{}
	return w, nil
}

// Remove deletes key and its whole subtree.
func (tx *Tx) Remove(key Key) error {
	if _, err := tx.Detach(key); err != nil {
		return err
	}
	tx.drop(key)
	return nil
}

func (tx *Tx) drop(key Key) {
	var keys []Key
	tx.WalkFrom(key, func(n Node, _ int) bool {
		keys = append(keys, n.Key())
		return true
	})
	for _, k := range keys {
		delete(tx.nodes, k)
		delete(tx.dirty, k)
		delete(tx.detached, k)
		if tx.base.Has(k) {
			tx.removed[k] = struct{}{}
		}
	}
}

// Replace puts n where old was and removes old with its subtree.
func (tx *Tx) Replace(old Key, n Node) error {
	p, i, err := tx.position(old)
	if err != nil {
		return err
	}
	if err := tx.Remove(old); err != nil {
		return err
	}
	return tx.InsertAt(p, i, n)
}

// Dirty returns the keys created or changed in this transaction.
func (tx *Tx) Dirty() []Key {
	keys := slices.Collect(maps.Keys(tx.dirty))
	slices.Sort(keys)
	return keys
}

// Removed returns keys present in the base snapshot that were removed.
func (tx *Tx) Removed() []Key {
	keys := slices.Collect(maps.Keys(tx.removed))
	slices.Sort(keys)
	return keys
}

// Changed reports whether the transaction touched anything.
func (tx *Tx) Changed() bool {
	return len(tx.dirty) > 0 || len(tx.removed) > 0
}

// Commit closes the transaction and returns the new snapshot. Nodes left
// detached are dropped. The returned error wraps ErrCorruptTree when the
// structural check fails.
func (tx *Tx) Commit() (*Snapshot, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	tx.closed = true
	for k := range maps.Clone(tx.detached) {
		if n, ok := tx.nodes[k]; ok && n.Parent() == "" {
			tx.drop(k)
		}
	}
	for k := range tx.dirty {
		if n, ok := tx.nodes[k]; ok {
			n.base().frozen = true
		}
	}
	if err := tx.verify(); err != nil {
		return nil, err
	}
	return &Snapshot{tree: tx.tree}, nil
}

// Discard closes the transaction without producing a snapshot.
func (tx *Tx) Discard() {
	tx.closed = true
}
