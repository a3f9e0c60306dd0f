package editor

import (
	"fmt"
	"slices"

	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/node"
	"github.com/dshills/folio/internal/selection"
)

// SplitText cuts the text node key at byte offset off. The left part keeps
// the key; the right part is inserted after it and its key is returned.
// Nothing is split when off is at either end, and "" is returned.
func SplitText(tx *node.Tx, key node.Key, off int) (node.Key, error) {
	t, ok := tx.Get(key).(*node.Text)
	if !ok {
		return "", fmt.Errorf("%w: %s is not text", node.ErrNodeNotFound, key)
	}
	s := t.Text()
	off = selection.GraphemeFloor(s, off)
	if off <= 0 || off >= len(s) {
		return "", nil
	}
	w, err := tx.Writable(key)
	if err != nil {
		return "", err
	}
	left := w.(*node.Text)
	if err := left.SetText(s[:off]); err != nil {
		return "", err
	}
	right := node.NewText(s[off:])
	if err := right.SetFormat(t.Format()); err != nil {
		return "", err
	}
	if err := tx.InsertAfter(key, right); err != nil {
		return "", err
	}
	return right.Key(), nil
}

// InsertionIndex resolves p to a parent element and child index, splitting
// a text node when p falls inside it.
func InsertionIndex(tx *node.Tx, p selection.Point) (node.Key, int, error) {
	n := tx.Get(p.Key)
	switch v := n.(type) {
	case nil:
		return "", 0, fmt.Errorf("%w: %s", node.ErrNodeNotFound, p.Key)
	case *node.Text:
		parent, idx := v.Parent(), tx.IndexOf(p.Key)
		switch {
		case p.Offset <= 0:
			return parent, idx, nil
		case p.Offset >= len(v.Text()):
			return parent, idx + 1, nil
		}
		if _, err := SplitText(tx, p.Key, p.Offset); err != nil {
			return "", 0, err
		}
		return parent, idx + 1, nil
	case node.Element:
		return p.Key, min(max(p.Offset, 0), v.ChildCount()), nil
	}
	if n.Parent() == "" {
		return "", 0, fmt.Errorf("%w: %s is detached", node.ErrNodeNotFound, p.Key)
	}
	return n.Parent(), tx.IndexOf(p.Key), nil
}

// PointAt returns the caret position between children idx-1 and idx of
// parent, preferring the end of a preceding text node.
func PointAt(rd node.Reader, parent node.Key, idx int) selection.Point {
	kids := rd.Children(parent)
	if idx > 0 && idx <= len(kids) {
		if t, ok := rd.Get(kids[idx-1]).(*node.Text); ok {
			return selection.TextPoint(t.Key(), len(t.Text()))
		}
	}
	if idx >= 0 && idx < len(kids) {
		if t, ok := rd.Get(kids[idx]).(*node.Text); ok {
			return selection.TextPoint(t.Key(), 0)
		}
	}
	return selection.ElementPoint(parent, min(max(idx, 0), len(kids)))
}

// NewBlockLike returns an empty block of the same kind as b. A heading split
// at its end continues as a paragraph.
func NewBlockLike(b node.TextBlock, atEnd bool) node.TextBlock {
	var nb node.TextBlock
	switch v := b.(type) {
	case *node.Heading:
		if atEnd {
			nb = node.NewParagraph()
		} else {
			nb = node.NewHeading(v.Tag())
		}
	case *node.Quote:
		nb = node.NewQuote()
	default:
		nb = node.NewParagraph()
	}
	_ = nb.SetAlign(b.Align())
	return nb
}

// SplitBlock splits the block holding p at p. The children after p move to
// a new block inserted after it, whose key is returned.
func SplitBlock(tx *node.Tx, p selection.Point) (node.Key, error) {
	block := BlockOf(tx, p.Key)
	if block == nil {
		return "", fmt.Errorf("%w: %s", ErrNotBlock, p.Key)
	}
	atEnd := AtBlockEnd(tx, p)
	_, idx, err := InsertionIndex(tx, p)
	if err != nil {
		return "", err
	}
	nb := NewBlockLike(block, atEnd)
	if err := tx.InsertAfter(block.Key(), nb); err != nil {
		return "", err
	}
	kids := tx.Children(block.Key())
	if idx < len(kids) {
		if err := moveChildren(tx, kids[idx:], nb.Key()); err != nil {
			return "", err
		}
	}
	return nb.Key(), nil
}

// MergeBlocks moves the children of right to the end of left, removes right
// and returns the caret position at the join.
func MergeBlocks(tx *node.Tx, left, right node.Key) (selection.Point, error) {
	caret := EndPoint(tx, left)
	if err := moveChildren(tx, tx.Children(right), left); err != nil {
		return selection.Point{}, err
	}
	if err := tx.Remove(right); err != nil {
		return selection.Point{}, err
	}
	return caret, NormalizeBlock(tx, left, caret.Key)
}

func moveChildren(tx *node.Tx, keys []node.Key, to node.Key) error {
	for _, k := range keys {
		n, err := tx.Detach(k)
		if err != nil {
			return err
		}
		if err := tx.Append(to, n); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeBlock merges adjacent text nodes with the same format into the
// first of them and drops empty text nodes other than keep.
func NormalizeBlock(tx *node.Tx, block, keep node.Key) error {
	kids := tx.Children(block)
	var prev *node.Text
	for _, k := range kids {
		t, ok := tx.Get(k).(*node.Text)
		if !ok {
			prev = nil
			continue
		}
		if t.Text() == "" && k != keep && len(kids) > 1 {
			if err := tx.Remove(k); err != nil {
				return err
			}
			continue
		}
		if prev != nil && prev.Format() == t.Format() && k != keep {
			w, err := tx.Writable(prev.Key())
			if err != nil {
				return err
			}
			if err := w.(*node.Text).SetText(prev.Text() + t.Text()); err != nil {
				return err
			}
			if err := tx.Remove(k); err != nil {
				return err
			}
			prev = w.(*node.Text)
			continue
		}
		prev = t
	}
	return nil
}

// DeleteRange removes the content between the ends of r and returns the
// collapsed caret. Blocks fully inside the range are removed and the block
// holding the end is merged into the block holding the start.
func DeleteRange(tx *node.Tx, r selection.Range) (selection.Point, error) {
	start, end := r.Ordered(tx)
	if start == end {
		return start, nil
	}
	if start.Key == end.Key {
		if t, ok := tx.Get(start.Key).(*node.Text); ok {
			w, err := tx.Writable(t.Key())
			if err != nil {
				return start, err
			}
			s := t.Text()
			if err := w.(*node.Text).SetText(s[:start.Offset] + s[end.Offset:]); err != nil {
				return start, err
			}
			return start, nil
		}
	}

	sb, eb := BlockOf(tx, start.Key), BlockOf(tx, end.Key)
	if sb == nil || eb == nil {
		return start, fmt.Errorf("%w: range ends outside text blocks", ErrNotBlock)
	}

	// Split the end first so the start indexes stay valid.
	ep, eidx, err := InsertionIndex(tx, end)
	if err != nil {
		return start, err
	}
	if ep != eb.Key() {
		eidx = 0
	}
	var stop node.Key
	if kids := tx.Children(eb.Key()); eidx < len(kids) {
		stop = kids[eidx]
	}
	sp, sidx, err := InsertionIndex(tx, start)
	if err != nil {
		return start, err
	}
	if sp != sb.Key() {
		sidx = 0
	}

	if sb.Key() == eb.Key() {
		kids := tx.Children(sb.Key())
		for _, k := range kids[sidx:] {
			if k == stop {
				break
			}
			if err := tx.Remove(k); err != nil {
				return start, err
			}
		}
	} else {
		for _, k := range tx.Children(sb.Key())[sidx:] {
			if err := tx.Remove(k); err != nil {
				return start, err
			}
		}
		for _, k := range tx.Children(eb.Key()) {
			if k == stop {
				break
			}
			if err := tx.Remove(k); err != nil {
				return start, err
			}
		}
		blocks := Blocks(tx)
		i, j := slices.Index(blocks, sb.Key()), slices.Index(blocks, eb.Key())
		if i >= 0 && j > i {
			for _, k := range blocks[i+1 : j] {
				if err := tx.Remove(k); err != nil {
					return start, err
				}
			}
		}
		if err := moveChildren(tx, tx.Children(eb.Key()), sb.Key()); err != nil {
			return start, err
		}
		if err := tx.Remove(eb.Key()); err != nil {
			return start, err
		}
	}
	caret := PointAt(tx, sb.Key(), sidx)
	return caret, NormalizeBlock(tx, sb.Key(), caret.Key)
}

// InsertTextAt inserts s at p and returns the caret after it. Text typed
// outside a text block starts a new paragraph.
func InsertTextAt(tx *node.Tx, p selection.Point, s string) (selection.Point, error) {
	n := tx.Get(p.Key)
	if n == nil {
		return p, fmt.Errorf("%w: %s", node.ErrNodeNotFound, p.Key)
	}
	if t, ok := n.(*node.Text); ok {
		w, err := tx.Writable(t.Key())
		if err != nil {
			return p, err
		}
		cur := t.Text()
		off := selection.GraphemeFloor(cur, p.Offset)
		if err := w.(*node.Text).SetText(cur[:off] + s + cur[off:]); err != nil {
			return p, err
		}
		return selection.TextPoint(t.Key(), off+len(s)), nil
	}

	parent, idx, err := InsertionIndex(tx, p)
	if err != nil {
		return p, err
	}
	if !IsBlock(tx.Get(parent)) {
		para := node.NewParagraph()
		if err := tx.InsertAt(parent, idx, para); err != nil {
			return p, err
		}
		parent, idx = para.Key(), 0
	}
	kids := tx.Children(parent)
	if idx > 0 {
		if _, ok := tx.Get(kids[idx-1]).(*node.Text); ok {
			return InsertTextAt(tx, EndPoint(tx, kids[idx-1]), s)
		}
	}
	if idx < len(kids) {
		if _, ok := tx.Get(kids[idx]).(*node.Text); ok {
			return InsertTextAt(tx, selection.TextPoint(kids[idx], 0), s)
		}
	}
	t := node.NewText(s)
	if err := tx.InsertAt(parent, idx, t); err != nil {
		return p, err
	}
	return selection.TextPoint(t.Key(), len(s)), nil
}

// InsertNodes inserts nodes at the pending selection. A non-collapsed range
// is deleted first. Leaves are placed inline at the caret, wrapped in a
// paragraph when the caret is not inside a text block. Blocks are placed
// beside the caret block, splitting it when the caret is in its middle, and
// an empty caret block is replaced. With no range, nodes are appended to the
// root. The caret ends after the last inserted node.
func InsertNodes(tx *engine.Tx, nodes ...node.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	r, ok := tx.Range()
	if !ok {
		parent := tx.RootKey()
		for _, n := range nodes {
			if node.IsLeaf(n) {
				para := node.NewParagraph()
				if err := tx.Append(parent, para); err != nil {
					return err
				}
				if err := tx.Append(para.Key(), n); err != nil {
					return err
				}
				continue
			}
			if err := tx.Append(parent, n); err != nil {
				return err
			}
		}
		tx.SetSelection(selection.Caret(EndPoint(tx, nodes[len(nodes)-1].Key())))
		return nil
	}

	caret := r.Focus
	if !r.IsCollapsed() {
		p, err := DeleteRange(tx.Tx, r)
		if err != nil {
			return err
		}
		caret = p
	}

	var last node.Key
	for _, n := range nodes {
		var err error
		if node.IsLeaf(n) {
			caret, err = insertInline(tx.Tx, caret, n)
		} else {
			caret, err = insertBlock(tx.Tx, caret, n)
		}
		if err != nil {
			return err
		}
		last = n.Key()
	}
	if node.IsLeaf(tx.Get(last)) {
		tx.SetSelection(selection.Caret(caret))
	} else {
		tx.SetSelection(selection.Caret(EndPoint(tx, last)))
	}
	return nil
}

func insertInline(tx *node.Tx, at selection.Point, n node.Node) (selection.Point, error) {
	parent, idx, err := InsertionIndex(tx, at)
	if err != nil {
		return at, err
	}
	if !IsBlock(tx.Get(parent)) {
		para := node.NewParagraph()
		if err := tx.InsertAt(parent, idx, para); err != nil {
			return at, err
		}
		parent, idx = para.Key(), 0
	}
	if err := tx.InsertAt(parent, idx, n); err != nil {
		return at, err
	}
	return PointAt(tx, parent, idx+1), nil
}

func insertBlock(tx *node.Tx, at selection.Point, n node.Node) (selection.Point, error) {
	block := BlockOf(tx, at.Key)
	if block == nil {
		parent, idx, err := InsertionIndex(tx, at)
		if err != nil {
			return at, err
		}
		if err := tx.InsertAt(parent, idx, n); err != nil {
			return at, err
		}
		return selection.ElementPoint(parent, idx+1), nil
	}
	switch {
	case IsEmptyBlock(tx, block.Key()):
		if err := tx.Replace(block.Key(), n); err != nil {
			return at, err
		}
	case AtBlockStart(tx, at):
		if err := tx.InsertBefore(block.Key(), n); err != nil {
			return at, err
		}
		return StartPoint(tx, block.Key()), nil
	case AtBlockEnd(tx, at):
		if err := tx.InsertAfter(block.Key(), n); err != nil {
			return at, err
		}
	default:
		if _, err := SplitBlock(tx, at); err != nil {
			return at, err
		}
		if err := tx.InsertAfter(block.Key(), n); err != nil {
			return at, err
		}
	}
	return EndPoint(tx, n.Key()), nil
}

// ReplaceBlock puts nb in place of the block old, moving old's children
// into it. Points on old must be remapped with RemapSelection.
func ReplaceBlock(tx *node.Tx, old node.Key, nb node.TextBlock) error {
	ob, ok := tx.Get(old).(node.TextBlock)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotBlock, old)
	}
	if err := nb.SetAlign(ob.Align()); err != nil {
		return err
	}
	if err := tx.Create(nb); err != nil {
		return err
	}
	if err := moveChildren(tx, tx.Children(old), nb.Key()); err != nil {
		return err
	}
	return tx.Replace(old, nb)
}

// RemapSelection rewrites points and node keys in sel according to keys.
func RemapSelection(sel selection.Selection, keys map[node.Key]node.Key) selection.Selection {
	remap := func(p selection.Point) selection.Point {
		if k, ok := keys[p.Key]; ok {
			p.Key = k
		}
		return p
	}
	switch s := sel.(type) {
	case selection.Range:
		return selection.NewRange(remap(s.Anchor), remap(s.Focus))
	case selection.NodeSet:
		out := make([]node.Key, 0, s.Len())
		for _, k := range s.Keys() {
			if nk, ok := keys[k]; ok {
				k = nk
			}
			out = append(out, k)
		}
		return selection.NewNodeSet(out...)
	}
	return sel
}
