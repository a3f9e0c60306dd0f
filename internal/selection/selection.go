package selection

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dshills/folio/internal/node"
)

// Kind says how a Point's offset is interpreted.
type Kind uint8

const (
	// PointText is a byte offset into a text node.
	PointText Kind = iota
	// PointElement is a child index in an element.
	PointElement
)

func (k Kind) String() string {
	if k == PointElement {
		return "element"
	}
	return "text"
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "text", "":
		*k = PointText
	case "element":
		*k = PointElement
	default:
		return fmt.Errorf("unknown point kind %q", b)
	}
	return nil
}

// Point is one end of a range.
type Point struct {
	Key    node.Key `json:"key"`
	Offset int      `json:"offset"`
	Kind   Kind     `json:"kind"`
}

// TextPoint returns a point inside a text node.
func TextPoint(key node.Key, offset int) Point {
	return Point{Key: key, Offset: offset, Kind: PointText}
}

// ElementPoint returns a point before child index in an element.
func ElementPoint(key node.Key, index int) Point {
	return Point{Key: key, Offset: index, Kind: PointElement}
}

func (p Point) String() string {
	return fmt.Sprintf("%s:%d(%s)", p.Key, p.Offset, p.Kind)
}

// Selection is a Range or a NodeSet.
type Selection interface {
	// Keys returns the keys the selection refers to.
	Keys() []node.Key
	String() string
	selection()
}

// Range selects everything between Anchor and Focus.
type Range struct {
	Anchor Point `json:"anchor"`
	Focus  Point `json:"focus"`
}

// Caret returns a collapsed range at p.
func Caret(p Point) Range {
	return Range{Anchor: p, Focus: p}
}

// NewRange returns a range from anchor to focus.
func NewRange(anchor, focus Point) Range {
	return Range{Anchor: anchor, Focus: focus}
}

func (Range) selection() {}

// IsCollapsed reports whether the range is a caret.
func (r Range) IsCollapsed() bool { return r.Anchor == r.Focus }

// Keys returns the anchor and focus keys, deduplicated.
func (r Range) Keys() []node.Key {
	if r.Anchor.Key == r.Focus.Key {
		return []node.Key{r.Anchor.Key}
	}
	return []node.Key{r.Anchor.Key, r.Focus.Key}
}

// Collapse returns a caret at the focus.
func (r Range) Collapse() Range { return Caret(r.Focus) }

// Extend moves the focus, keeping the anchor.
func (r Range) Extend(p Point) Range { return Range{Anchor: r.Anchor, Focus: p} }

// IsBackward reports whether the focus precedes the anchor in document order.
func (r Range) IsBackward(rd node.Reader) bool {
	return Compare(rd, r.Focus, r.Anchor) < 0
}

// Ordered returns the range ends in document order.
func (r Range) Ordered(rd node.Reader) (start, end Point) {
	if r.IsBackward(rd) {
		return r.Focus, r.Anchor
	}
	return r.Anchor, r.Focus
}

func (r Range) String() string {
	if r.IsCollapsed() {
		return "caret " + r.Anchor.String()
	}
	return "range " + r.Anchor.String() + ".." + r.Focus.String()
}

// NodeSet selects whole nodes. The zero value is empty.
type NodeSet struct {
	keys []node.Key
}

// NewNodeSet returns a set holding keys in order, without duplicates.
func NewNodeSet(keys ...node.Key) NodeSet {
	var s NodeSet
	for _, k := range keys {
		s = s.Add(k)
	}
	return s
}

func (NodeSet) selection() {}

// Keys returns a copy of the selected keys in insertion order.
func (s NodeSet) Keys() []node.Key { return slices.Clone(s.keys) }

// Len returns the number of selected keys.
func (s NodeSet) Len() int { return len(s.keys) }

// Has reports whether key is selected.
func (s NodeSet) Has(key node.Key) bool { return slices.Contains(s.keys, key) }

// Add returns a set that includes key.
func (s NodeSet) Add(key node.Key) NodeSet {
	if s.Has(key) {
		return s
	}
	return NodeSet{keys: append(slices.Clone(s.keys), key)}
}

// Remove returns a set without key.
func (s NodeSet) Remove(key node.Key) NodeSet {
	i := slices.Index(s.keys, key)
	if i < 0 {
		return s
	}
	return NodeSet{keys: slices.Delete(slices.Clone(s.keys), i, i+1)}
}

// Toggle adds key if absent and removes it if present.
func (s NodeSet) Toggle(key node.Key) NodeSet {
	if s.Has(key) {
		return s.Remove(key)
	}
	return s.Add(key)
}

func (s NodeSet) String() string {
	parts := make([]string, len(s.keys))
	for i, k := range s.keys {
		parts[i] = string(k)
	}
	return "nodes [" + strings.Join(parts, " ") + "]"
}

// Equal reports whether a and b select the same thing.
func Equal(a, b Selection) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case Range:
		bv, ok := b.(Range)
		return ok && av == bv
	case NodeSet:
		bv, ok := b.(NodeSet)
		return ok && slices.Equal(av.keys, bv.keys)
	}
	return false
}

// AsRange returns sel as a Range when it is one.
func AsRange(sel Selection) (Range, bool) {
	r, ok := sel.(Range)
	return r, ok
}

// AsNodeSet returns sel as a NodeSet when it is one.
func AsNodeSet(sel Selection) (NodeSet, bool) {
	s, ok := sel.(NodeSet)
	return s, ok
}
