package node

import (
	"fmt"
	"slices"
)

// Node is a unit of document structure.
//
// Node is sealed: implementations embed Base (through LeafBase or
// ElementBase), which supplies the identity and parent link.
type Node interface {
	// Key returns the stable identity of the node.
	Key() Key

	// Type returns the registry type tag.
	Type() string

	// Parent returns the key of the owning element, or "" for the root and
	// for detached nodes.
	Parent() Key

	// IsFrozen reports whether the node belongs to a published snapshot.
	IsFrozen() bool

	// Clone returns a writable copy with the same key and attributes.
	Clone() Node

	base() *Base
}

// Element is a structural node with ordered children.
type Element interface {
	Node

	// Children returns a copy of the child keys in reading order.
	Children() []Key

	// ChildCount returns the number of children.
	ChildCount() int

	element() *ElementBase
}

// Leaf is a node that owns no children.
type Leaf interface {
	Node
	leaf()
}

// Base holds the identity shared by every node.
type Base struct {
	key    Key
	parent Key
	frozen bool
}

// NewBase returns a Base with the given key, allocating one when key is empty.
func NewBase(key Key) Base {
	if key == "" {
		key = NewKey()
	}
	return Base{key: key}
}

// Key implements Node.
func (b *Base) Key() Key { return b.key }

// Parent implements Node.
func (b *Base) Parent() Key { return b.parent }

// IsFrozen implements Node.
func (b *Base) IsFrozen() bool { return b.frozen }

// CheckWritable returns ErrIllegalMutation when the node is frozen.
// Attribute setters call it before changing state.
func (b *Base) CheckWritable() error {
	if b.frozen {
		return fmt.Errorf("%w: node %s is frozen", ErrIllegalMutation, b.key)
	}
	return nil
}

func (b *Base) base() *Base { return b }

// LeafBase is embedded by leaf nodes.
type LeafBase struct {
	Base
}

// NewLeafBase returns a LeafBase with the given key.
func NewLeafBase(key Key) LeafBase {
	return LeafBase{Base: NewBase(key)}
}

func (*LeafBase) leaf() {}

// ElementBase is embedded by structural nodes.
type ElementBase struct {
	Base
	children []Key
}

// NewElementBase returns an ElementBase with the given key and no children.
func NewElementBase(key Key) ElementBase {
	return ElementBase{Base: NewBase(key)}
}

// Children implements Element.
func (e *ElementBase) Children() []Key {
	return slices.Clone(e.children)
}

// ChildCount implements Element.
func (e *ElementBase) ChildCount() int {
	return len(e.children)
}

func (e *ElementBase) element() *ElementBase { return e }

// Thaw prepares a shallow struct copy of a node to serve as its clone:
// the copy is unfrozen and an element's child list is no longer shared.
//
//	func (n *Paragraph) Clone() node.Node {
//	    c := *n
//	    return node.Thaw(&c)
//	}
func Thaw(n Node) Node {
	n.base().frozen = false
	if e, ok := n.(Element); ok {
		eb := e.element()
		eb.children = slices.Clone(eb.children)
	}
	return n
}

// IsElement reports whether n can hold children.
func IsElement(n Node) bool {
	_, ok := n.(Element)
	return ok
}

// IsLeaf reports whether n is a leaf.
func IsLeaf(n Node) bool {
	_, ok := n.(Leaf)
	return ok
}
