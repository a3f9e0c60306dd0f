package richtext

import (
	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/node"
	"github.com/dshills/folio/internal/selection"
)

func (h *handlers) deleteCharacter(p editor.DeleteCharacterPayload) (bool, error) {
	handled := false
	err := h.s.Update(func(tx *engine.Tx) error {
		tx.SetLabel("delete-character")
		switch sel := tx.Selection().(type) {
		case selection.NodeSet:
			handled = true
			return removeNodes(tx, sel)
		case selection.Range:
			handled = true
			if !sel.IsCollapsed() {
				caret, err := editor.DeleteRange(tx.Tx, sel)
				if err != nil {
					return err
				}
				tx.SetSelection(selection.Caret(caret))
				return nil
			}
			var (
				caret selection.Point
				err   error
			)
			if p.Backward {
				caret, err = deleteBackward(tx, sel.Focus)
			} else {
				caret, err = deleteForward(tx, sel.Focus)
			}
			if err != nil {
				return err
			}
			tx.SetSelection(selection.Caret(caret))
		}
		return nil
	})
	return handled, err
}

// removeNodes deletes every selected node and puts the caret where the
// first one was.
func removeNodes(tx *engine.Tx, set selection.NodeSet) error {
	var caret *selection.Point
	for _, k := range set.Keys() {
		n := tx.Get(k)
		if n == nil || n.Parent() == "" {
			continue
		}
		if caret == nil {
			p := selection.ElementPoint(n.Parent(), tx.IndexOf(k))
			caret = &p
		}
		if err := tx.Remove(k); err != nil {
			return err
		}
	}
	if caret == nil || !tx.Has(caret.Key) {
		tx.SetSelection(nil)
		return nil
	}
	tx.SetSelection(selection.Caret(editor.PointAt(tx, caret.Key, caret.Offset)))
	return nil
}

// cut removes s[from:to] from the text node key.
func cut(tx *engine.Tx, key node.Key, from, to int) error {
	w, err := tx.Writable(key)
	if err != nil {
		return err
	}
	t := w.(*node.Text)
	s := t.Text()
	return t.SetText(s[:from] + s[to:])
}

// sibling returns the inline node before (backward) or after p inside its
// block.
func sibling(tx *engine.Tx, p selection.Point, backward bool) node.Node {
	n := tx.Get(p.Key)
	if _, ok := n.(*node.Text); ok {
		if backward {
			return tx.PrevSibling(p.Key)
		}
		return tx.NextSibling(p.Key)
	}
	if !editor.IsBlock(n) {
		return nil
	}
	kids := tx.Children(p.Key)
	i := p.Offset
	if backward {
		i--
	}
	if i < 0 || i >= len(kids) {
		return nil
	}
	return tx.Get(kids[i])
}

func deleteBackward(tx *engine.Tx, p selection.Point) (selection.Point, error) {
	if t, ok := tx.Get(p.Key).(*node.Text); ok && p.Offset > 0 {
		prev := selection.PrevGrapheme(t.Text(), p.Offset)
		return selection.TextPoint(p.Key, prev), cut(tx, p.Key, prev, p.Offset)
	}
	if !isBlockStart(tx, p) {
		switch n := sibling(tx, p, true).(type) {
		case nil:
		case *node.Text:
			s := n.Text()
			prev := selection.PrevGrapheme(s, len(s))
			return selection.TextPoint(n.Key(), prev), cut(tx, n.Key(), prev, len(s))
		default:
			parent, idx := n.Parent(), tx.IndexOf(n.Key())
			if err := tx.Remove(n.Key()); err != nil {
				return p, err
			}
			return editor.PointAt(tx, parent, idx), nil
		}
		return p, nil
	}

	block := editor.BlockOf(tx, p.Key)
	if block == nil {
		return p, nil
	}
	prev := tx.PrevSibling(block.Key())
	if _, isPara := block.(*node.Paragraph); !isPara && editor.PrevBlock(tx, block.Key()) == nil {
		nb := node.NewParagraph()
		if err := editor.ReplaceBlock(tx.Tx, block.Key(), nb); err != nil {
			return p, err
		}
		return editor.StartPoint(tx, nb.Key()), nil
	}
	switch {
	case prev == nil:
		return p, nil
	case editor.IsBlock(prev):
		return editor.MergeBlocks(tx.Tx, prev.Key(), block.Key())
	case editor.IsEmptyBlock(tx, block.Key()):
		if err := tx.Remove(block.Key()); err != nil {
			return p, err
		}
		return editor.EndPoint(tx, prev.Key()), nil
	}
	return p, nil
}

func deleteForward(tx *engine.Tx, p selection.Point) (selection.Point, error) {
	if t, ok := tx.Get(p.Key).(*node.Text); ok && p.Offset < len(t.Text()) {
		next := selection.NextGrapheme(t.Text(), p.Offset)
		return p, cut(tx, p.Key, p.Offset, next)
	}
	if !editor.AtBlockEnd(tx, p) {
		switch n := sibling(tx, p, false).(type) {
		case nil:
		case *node.Text:
			next := selection.NextGrapheme(n.Text(), 0)
			return p, cut(tx, n.Key(), 0, next)
		default:
			if err := tx.Remove(n.Key()); err != nil {
				return p, err
			}
		}
		return p, nil
	}

	block := editor.BlockOf(tx, p.Key)
	if block == nil {
		return p, nil
	}
	next := tx.NextSibling(block.Key())
	switch {
	case next == nil:
		return p, nil
	case editor.IsBlock(next):
		return editor.MergeBlocks(tx.Tx, block.Key(), next.Key())
	case editor.IsEmptyBlock(tx, block.Key()):
		if err := tx.Remove(block.Key()); err != nil {
			return p, err
		}
		return editor.StartPoint(tx, next.Key()), nil
	}
	return p, nil
}

// isBlockStart reports whether p is at the start of its block, counting an
// element point at offset 0 and a text point at offset 0 with no previous
// sibling.
func isBlockStart(tx *engine.Tx, p selection.Point) bool {
	if editor.AtBlockStart(tx, p) {
		return true
	}
	if _, ok := tx.Get(p.Key).(*node.Text); ok && p.Offset == 0 {
		return tx.PrevSibling(p.Key) == nil
	}
	return false
}
