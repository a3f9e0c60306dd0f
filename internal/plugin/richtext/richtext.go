package richtext

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dshills/folio/internal/dispatcher"
	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/node"
	"github.com/dshills/folio/internal/selection"
)

// Plugin registers the default editing handlers.
type Plugin struct{}

// New returns the rich text plugin.
func New() *Plugin { return &Plugin{} }

// Name implements editor.Plugin.
func (*Plugin) Name() string { return "richtext" }

// Register implements editor.Plugin.
func (*Plugin) Register(s *editor.Session) (func(), error) {
	h := &handlers{s: s}
	const prio = dispatcher.PriorityFallback
	unregister := []func(){
		dispatcher.Register(s.Bus, editor.InsertText, prio, h.insertText),
		dispatcher.Register(s.Bus, editor.InsertParagraph, prio, h.insertParagraph),
		dispatcher.Register(s.Bus, editor.DeleteCharacter, prio, h.deleteCharacter),
		dispatcher.Register(s.Bus, editor.KeyBackspace, prio, h.keyBackspace),
		dispatcher.Register(s.Bus, editor.KeyDelete, prio, h.keyDelete),
		dispatcher.Register(s.Bus, editor.MoveDown, prio, h.moveDown),
		dispatcher.Register(s.Bus, editor.Click, prio, h.click),
		dispatcher.Register(s.Bus, editor.SetSelection, prio, h.setSelection),
		dispatcher.Register(s.Bus, editor.FormatText, prio, h.formatText),
		dispatcher.Register(s.Bus, editor.FormatElement, prio, h.formatElement),
		dispatcher.Register(s.Bus, editor.SetBlockType, prio, h.setBlockType),
		dispatcher.Register(s.Bus, editor.Undo, prio, h.undo),
		dispatcher.Register(s.Bus, editor.Redo, prio, h.redo),
	}
	return func() {
		for _, fn := range unregister {
			fn()
		}
	}, nil
}

type handlers struct {
	s *editor.Session
}

// edit runs fn with the pending range selection. It reports false without
// committing anything when there is no range.
func (h *handlers) edit(label string, fn func(tx *engine.Tx, r selection.Range) error) (bool, error) {
	handled := false
	err := h.s.Update(func(tx *engine.Tx) error {
		r, ok := tx.Range()
		if !ok {
			return nil
		}
		handled = true
		tx.SetLabel(label)
		return fn(tx, r)
	})
	return handled, err
}

func (h *handlers) insertText(text string) (bool, error) {
	text = norm.NFC.String(text)
	return h.edit("insert-text", func(tx *engine.Tx, r selection.Range) error {
		caret := r.Focus
		if !r.IsCollapsed() {
			p, err := editor.DeleteRange(tx.Tx, r)
			if err != nil {
				return err
			}
			caret = p
		}
		for i, line := range strings.Split(text, "\n") {
			if i > 0 {
				nb, err := splitAt(tx, caret)
				if err != nil {
					return err
				}
				caret = editor.StartPoint(tx, nb)
			}
			if line == "" {
				continue
			}
			p, err := editor.InsertTextAt(tx.Tx, caret, line)
			if err != nil {
				return err
			}
			caret = p
		}
		tx.SetSelection(selection.Caret(caret))
		return nil
	})
}

// splitAt splits the block holding p, or starts a new paragraph at p when
// p is outside any text block.
func splitAt(tx *engine.Tx, p selection.Point) (node.Key, error) {
	if editor.BlockOf(tx, p.Key) != nil {
		return editor.SplitBlock(tx.Tx, p)
	}
	parent, idx, err := editor.InsertionIndex(tx.Tx, p)
	if err != nil {
		return "", err
	}
	para := node.NewParagraph()
	if err := tx.InsertAt(parent, idx, para); err != nil {
		return "", err
	}
	return para.Key(), nil
}

func (h *handlers) insertParagraph(struct{}) (bool, error) {
	return h.edit("insert-paragraph", func(tx *engine.Tx, r selection.Range) error {
		caret := r.Focus
		if !r.IsCollapsed() {
			p, err := editor.DeleteRange(tx.Tx, r)
			if err != nil {
				return err
			}
			caret = p
		}
		nb, err := splitAt(tx, caret)
		if err != nil {
			return err
		}
		tx.SetSelection(selection.Caret(editor.StartPoint(tx, nb)))
		return nil
	})
}

func (h *handlers) keyBackspace(editor.KeyEvent) (bool, error) {
	return dispatcher.Dispatch(h.s.Bus, editor.DeleteCharacter, editor.DeleteCharacterPayload{Backward: true})
}

func (h *handlers) keyDelete(editor.KeyEvent) (bool, error) {
	return dispatcher.Dispatch(h.s.Bus, editor.DeleteCharacter, editor.DeleteCharacterPayload{Backward: false})
}

func (h *handlers) moveDown(ev editor.KeyEvent) (bool, error) {
	handled := false
	err := h.s.Update(func(tx *engine.Tx) error {
		r, ok := tx.Range()
		if !ok {
			return nil
		}
		block := editor.BlockOf(tx, r.Focus.Key)
		if block == nil {
			return nil
		}
		next := editor.NextBlock(tx, block.Key())
		if next == nil {
			return nil
		}
		p := editor.StartPoint(tx, next.Key())
		if ev.Shift {
			tx.SetSelection(r.Extend(p))
		} else {
			tx.SetSelection(selection.Caret(p))
		}
		handled = true
		return nil
	})
	return handled, err
}

func (h *handlers) click(p editor.ClickPayload) (bool, error) {
	handled := false
	err := h.s.Update(func(tx *engine.Tx) error {
		n := tx.Get(p.Key)
		var pt selection.Point
		switch n.(type) {
		case nil:
			return nil
		case *node.Text:
			pt = selection.TextPoint(p.Key, p.Offset)
		case node.Element:
			pt = selection.ElementPoint(p.Key, p.Offset)
		default:
			tx.SetSelection(selection.NewNodeSet(p.Key))
			handled = true
			return nil
		}
		if r, ok := tx.Range(); ok && p.Shift {
			tx.SetSelection(r.Extend(pt))
		} else {
			tx.SetSelection(selection.Caret(pt))
		}
		handled = true
		return nil
	})
	return handled, err
}

func (h *handlers) setSelection(p editor.SelectPayload) (bool, error) {
	return true, h.s.Update(func(tx *engine.Tx) error {
		tx.SetSelection(p.Selection())
		return nil
	})
}

func (h *handlers) undo(struct{}) (bool, error) {
	err := h.s.Engine.Undo()
	if errors.Is(err, engine.ErrNothingToUndo) {
		return false, nil
	}
	return err == nil, err
}

func (h *handlers) redo(struct{}) (bool, error) {
	err := h.s.Engine.Redo()
	if errors.Is(err, engine.ErrNothingToRedo) {
		return false, nil
	}
	return err == nil, err
}

func (h *handlers) formatElement(name string) (bool, error) {
	align, err := node.ParseAlign(name)
	if err != nil {
		return false, err
	}
	handled := false
	err = h.s.Update(func(tx *engine.Tx) error {
		for _, k := range editor.SelectedBlocks(tx, tx.Selection()) {
			w, err := tx.Writable(k)
			if err != nil {
				return err
			}
			if err := w.(node.TextBlock).SetAlign(align); err != nil {
				return err
			}
			handled = true
		}
		tx.SetLabel("format-element")
		return nil
	})
	return handled, err
}

// newBlock builds an empty block for a block type name.
func newBlock(kind string) (node.TextBlock, error) {
	switch {
	case kind == node.TypeParagraph:
		return node.NewParagraph(), nil
	case kind == node.TypeQuote:
		return node.NewQuote(), nil
	case node.ValidHeadingTag(kind):
		return node.NewHeading(kind), nil
	}
	return nil, fmt.Errorf("%w: unknown block type %q", dispatcher.ErrInvalidPayload, kind)
}

// sameKind reports whether b already has the block type kind.
func sameKind(b node.TextBlock, kind string) bool {
	if h, ok := b.(*node.Heading); ok {
		return h.Tag() == kind
	}
	return b.Type() == kind
}

func (h *handlers) setBlockType(kind string) (bool, error) {
	if _, err := newBlock(kind); err != nil {
		return false, err
	}
	handled := false
	err := h.s.Update(func(tx *engine.Tx) error {
		keys := map[node.Key]node.Key{}
		for _, k := range editor.SelectedBlocks(tx, tx.Selection()) {
			handled = true
			if sameKind(tx.Get(k).(node.TextBlock), kind) {
				continue
			}
			nb, _ := newBlock(kind)
			if err := editor.ReplaceBlock(tx.Tx, k, nb); err != nil {
				return err
			}
			keys[k] = nb.Key()
		}
		if len(keys) > 0 {
			tx.SetSelection(editor.RemapSelection(tx.Selection(), keys))
			tx.SetLabel("set-block-type")
		}
		return nil
	})
	return handled, err
}
