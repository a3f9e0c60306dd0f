package richtext

import (
	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/node"
	"github.com/dshills/folio/internal/selection"
)

// formatText toggles a format on the text covered by the selection. When
// every covered run already carries the format it is removed, otherwise it
// is added to all of them.
func (h *handlers) formatText(name string) (bool, error) {
	f, err := node.ParseFormat(name)
	if err != nil {
		return false, err
	}
	handled := false
	err = h.s.Update(func(tx *engine.Tx) error {
		r, ok := tx.Range()
		if !ok || r.IsCollapsed() {
			return nil
		}
		runs, err := coveredRuns(tx, r)
		if err != nil || len(runs) == 0 {
			return err
		}
		handled = true
		tx.SetLabel("format-text")

		all := true
		for _, k := range runs {
			if !tx.Get(k).(*node.Text).Format().Has(f) {
				all = false
				break
			}
		}
		for _, k := range runs {
			w, err := tx.Writable(k)
			if err != nil {
				return err
			}
			t := w.(*node.Text)
			next := t.Format() | f
			if all {
				next = t.Format() &^ f
			}
			if err := t.SetFormat(next); err != nil {
				return err
			}
		}
		first, last := runs[0], runs[len(runs)-1]
		end := len(tx.Get(last).(*node.Text).Text())
		if r.IsBackward(tx) {
			tx.SetSelection(selection.NewRange(selection.TextPoint(last, end), selection.TextPoint(first, 0)))
		} else {
			tx.SetSelection(selection.NewRange(selection.TextPoint(first, 0), selection.TextPoint(last, end)))
		}
		return nil
	})
	return handled, err
}

// coveredRuns splits the text nodes at the range ends and returns the keys
// of the non-empty text nodes inside the range in document order.
func coveredRuns(tx *engine.Tx, r selection.Range) ([]node.Key, error) {
	start, end := r.Ordered(tx)

	if start.Key == end.Key {
		t, ok := tx.Get(start.Key).(*node.Text)
		if !ok {
			return nil, nil
		}
		if _, err := editor.SplitText(tx.Tx, start.Key, end.Offset); err != nil {
			return nil, err
		}
		if start.Offset <= 0 {
			return []node.Key{t.Key()}, nil
		}
		right, err := editor.SplitText(tx.Tx, start.Key, start.Offset)
		if err != nil || right == "" {
			return nil, err
		}
		return []node.Key{right}, nil
	}

	if _, ok := tx.Get(end.Key).(*node.Text); ok {
		if _, err := editor.SplitText(tx.Tx, end.Key, end.Offset); err != nil {
			return nil, err
		}
	}
	from := start
	if _, ok := tx.Get(start.Key).(*node.Text); ok {
		right, err := editor.SplitText(tx.Tx, start.Key, start.Offset)
		if err != nil {
			return nil, err
		}
		if right != "" {
			from = selection.TextPoint(right, 0)
		}
	}

	var runs []node.Key
	tx.Walk(func(n node.Node, _ int) bool {
		t, ok := n.(*node.Text)
		if !ok || t.Text() == "" {
			return true
		}
		lo := selection.TextPoint(t.Key(), 0)
		hi := selection.TextPoint(t.Key(), len(t.Text()))
		if selection.Compare(tx, lo, from) >= 0 && selection.Compare(tx, hi, end) <= 0 {
			runs = append(runs, t.Key())
		}
		return true
	})
	return runs, nil
}
