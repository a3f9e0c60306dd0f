package node

import (
	"fmt"
	"slices"
	"strings"
)

// Reader is the read API shared by Snapshot and Tx.
type Reader interface {
	RootKey() Key
	Get(key Key) Node
	Has(key Key) bool
	Children(key Key) []Key
	FirstChild(key Key) Node
	LastChild(key Key) Node
	ParentOf(key Key) Element
	IndexOf(key Key) int
	NextSibling(key Key) Node
	PrevSibling(key Key) Node
	Ancestors(key Key) []Key
	IsAncestor(anc, key Key) bool
	TextContent(key Key) string
	Walk(fn func(n Node, depth int) bool)
	WalkFrom(key Key, fn func(n Node, depth int) bool)
	Len() int
}

// tree is the node table behind snapshots and transactions.
type tree struct {
	nodes map[Key]Node
	root  Key
}

// Snapshot is an immutable document tree.
type Snapshot struct {
	tree
}

// Empty returns a snapshot holding only a root.
func Empty() *Snapshot {
	r := NewRoot()
	r.frozen = true
	return &Snapshot{tree: tree{
		nodes: map[Key]Node{r.Key(): r},
		root:  r.Key(),
	}}
}

// NewDocument returns a snapshot holding a root with one empty paragraph.
func NewDocument() *Snapshot {
	tx := Fork(Empty())
	if err := tx.Append(tx.RootKey(), NewParagraph()); err != nil {
		panic(err)
	}
	snap, err := tx.Commit()
	if err != nil {
		panic(err)
	}
	return snap
}

// RootKey returns the key of the root element.
func (t *tree) RootKey() Key { return t.root }

// Root returns the root element.
func (t *tree) Root() Element {
	return t.nodes[t.root].(Element)
}

// Get returns the node for key, or nil.
func (t *tree) Get(key Key) Node {
	return t.nodes[key]
}

// Has reports whether key resolves.
func (t *tree) Has(key Key) bool {
	_, ok := t.nodes[key]
	return ok
}

// Len returns the number of nodes, including the root.
func (t *tree) Len() int { return len(t.nodes) }

// Keys returns all keys in document order.
func (t *tree) Keys() []Key {
	keys := make([]Key, 0, len(t.nodes))
	t.Walk(func(n Node, _ int) bool {
		keys = append(keys, n.Key())
		return true
	})
	return keys
}

// Children returns the child keys of key, or nil for leaves and unknown keys.
func (t *tree) Children(key Key) []Key {
	if e, ok := t.nodes[key].(Element); ok {
		return e.Children()
	}
	return nil
}

// FirstChild returns the first child of key, or nil.
func (t *tree) FirstChild(key Key) Node {
	if e, ok := t.nodes[key].(Element); ok {
		if kids := e.element().children; len(kids) > 0 {
			return t.nodes[kids[0]]
		}
	}
	return nil
}

// LastChild returns the last child of key, or nil.
func (t *tree) LastChild(key Key) Node {
	if e, ok := t.nodes[key].(Element); ok {
		if kids := e.element().children; len(kids) > 0 {
			return t.nodes[kids[len(kids)-1]]
		}
	}
	return nil
}

// ParentOf returns the parent element of key, or nil.
func (t *tree) ParentOf(key Key) Element {
	n := t.nodes[key]
	if n == nil || n.Parent() == "" {
		return nil
	}
	p, _ := t.nodes[n.Parent()].(Element)
	return p
}

// IndexOf returns the position of key among its siblings, or -1.
func (t *tree) IndexOf(key Key) int {
	p := t.ParentOf(key)
	if p == nil {
		return -1
	}
	return slices.Index(p.element().children, key)
}

// NextSibling returns the sibling after key, or nil.
func (t *tree) NextSibling(key Key) Node {
	p := t.ParentOf(key)
	if p == nil {
		return nil
	}
	kids := p.element().children
	if i := slices.Index(kids, key); i >= 0 && i+1 < len(kids) {
		return t.nodes[kids[i+1]]
	}
	return nil
}

// PrevSibling returns the sibling before key, or nil.
func (t *tree) PrevSibling(key Key) Node {
	p := t.ParentOf(key)
	if p == nil {
		return nil
	}
	kids := p.element().children
	if i := slices.Index(kids, key); i > 0 {
		return t.nodes[kids[i-1]]
	}
	return nil
}

// Ancestors returns the keys above key, nearest first, ending at the root.
func (t *tree) Ancestors(key Key) []Key {
	var out []Key
	n := t.nodes[key]
	for n != nil && n.Parent() != "" {
		out = append(out, n.Parent())
		n = t.nodes[n.Parent()]
	}
	return out
}

// IsAncestor reports whether anc is a strict ancestor of key.
func (t *tree) IsAncestor(anc, key Key) bool {
	return slices.Contains(t.Ancestors(key), anc)
}

// Walk visits every node in document order. Returning false from fn skips
// the node's children.
func (t *tree) Walk(fn func(n Node, depth int) bool) {
	t.WalkFrom(t.root, fn)
}

// WalkFrom visits the subtree rooted at key in document order.
func (t *tree) WalkFrom(key Key, fn func(n Node, depth int) bool) {
	var visit func(k Key, depth int)
	visit = func(k Key, depth int) {
		n := t.nodes[k]
		if n == nil {
			return
		}
		if !fn(n, depth) {
			return
		}
		if e, ok := n.(Element); ok {
			for _, c := range e.element().children {
				visit(c, depth+1)
			}
		}
	}
	visit(key, 0)
}

// TextContent returns the concatenated text below key. Text blocks are
// separated by a blank line.
func (t *tree) TextContent(key Key) string {
	var b strings.Builder
	var visit func(k Key)
	visit = func(k Key) {
		switch n := t.nodes[k].(type) {
		case *Text:
			b.WriteString(n.Text())
		case Element:
			_, block := n.(TextBlock)
			if block && b.Len() > 0 {
				b.WriteString("\n\n")
			}
			for _, c := range n.element().children {
				visit(c)
			}
		}
	}
	visit(key)
	return b.String()
}

// verify checks parent/child consistency and reachability.
func (t *tree) verify() error {
	root, ok := t.nodes[t.root].(Element)
	if !ok {
		return fmt.Errorf("%w: root %s missing or not an element", ErrCorruptTree, t.root)
	}
	if root.Parent() != "" {
		return fmt.Errorf("%w: root has parent %s", ErrCorruptTree, root.Parent())
	}
	seen := map[Key]bool{t.root: true}
	var visit func(e Element) error
	visit = func(e Element) error {
		for _, k := range e.element().children {
			if seen[k] {
				return fmt.Errorf("%w: key %s listed twice", ErrCorruptTree, k)
			}
			c := t.nodes[k]
			if c == nil {
				return fmt.Errorf("%w: child %s of %s does not resolve", ErrCorruptTree, k, e.Key())
			}
			if c.Parent() != e.Key() {
				return fmt.Errorf("%w: child %s of %s claims parent %q", ErrCorruptTree, k, e.Key(), c.Parent())
			}
			seen[k] = true
			if ce, ok := c.(Element); ok {
				if err := visit(ce); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := visit(root); err != nil {
		return err
	}
	if len(seen) != len(t.nodes) {
		for k := range t.nodes {
			if !seen[k] {
				return fmt.Errorf("%w: orphaned key %s", ErrCorruptTree, k)
			}
		}
	}
	return nil
}
