package column

import (
	"fmt"

	"github.com/dshills/folio/internal/dispatcher"
	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/node"
	"github.com/dshills/folio/internal/selection"
)

// InsertPayload configures INSERT_COLUMN_COMMAND.
type InsertPayload struct {
	TotalColumns int `json:"totalColumns"`
}

// InsertColumns inserts a container at the selection.
var InsertColumns = dispatcher.NewCommand[InsertPayload]("INSERT_COLUMN_COMMAND")

// InvariantName names the container shape check.
const InvariantName = "column-count"

// Plugin registers the column node types, invariant and handlers.
type Plugin struct{}

// New returns the column plugin.
func New() *Plugin { return &Plugin{} }

// Name implements editor.Plugin.
func (*Plugin) Name() string { return "column" }

// Register implements editor.Plugin.
func (*Plugin) Register(s *editor.Session) (func(), error) {
	for typ, b := range behaviors() {
		if err := s.Registry.Register(typ, b); err != nil {
			return nil, err
		}
	}
	s.Engine.RegisterInvariant(InvariantName, CheckInvariant)

	h := &handlers{s: s}
	unregister := []func(){
		dispatcher.Register(s.Bus, InsertColumns, dispatcher.PriorityEditor, h.insert),
		dispatcher.Register(s.Bus, editor.MoveDown, dispatcher.PriorityLow, h.escape),
		dispatcher.Register(s.Bus, editor.DeleteCharacter, dispatcher.PriorityLow, h.deleteStructure),
	}
	return func() {
		for _, fn := range unregister {
			fn()
		}
	}, nil
}

// CheckInvariant verifies that every container has exactly ColumnCount
// children, all of them columns, and that every column sits in a container.
func CheckInvariant(snap *node.Snapshot) error {
	var err error
	snap.Walk(func(n node.Node, _ int) bool {
		if err != nil {
			return false
		}
		switch v := n.(type) {
		case *Container:
			if v.ChildCount() != v.ColumnCount() {
				err = fmt.Errorf("container %s has %d columns, declares %d", v.Key(), v.ChildCount(), v.ColumnCount())
				return false
			}
			for _, k := range v.Children() {
				if !IsColumn(snap.Get(k)) {
					err = fmt.Errorf("container %s holds %s %s", v.Key(), snap.Get(k).Type(), k)
					return false
				}
			}
		case *Column:
			if !IsContainer(snap.ParentOf(v.Key())) {
				err = fmt.Errorf("column %s is outside a container", v.Key())
				return false
			}
		}
		return true
	})
	return err
}

// Build returns a detached container with n columns, each holding one
// empty paragraph.
func Build(tx *node.Tx, n int) (*Container, error) {
	if n <= 0 {
		n = DefaultColumns
	}
	c := NewContainer(n)
	if err := tx.Create(c); err != nil {
		return nil, err
	}
	for range n {
		col := NewColumn()
		if err := tx.Append(c.Key(), col); err != nil {
			return nil, err
		}
		if err := tx.Append(col.Key(), node.NewParagraph()); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// InsertColumn adds an empty column at index (negative appends) and raises
// the container's count to match.
func InsertColumn(tx *node.Tx, container node.Key, index int) (node.Key, error) {
	w, err := tx.Writable(container)
	if err != nil {
		return "", err
	}
	c, ok := w.(*Container)
	if !ok {
		return "", fmt.Errorf("%s is not a column container", container)
	}
	col := NewColumn()
	if err := tx.InsertAt(container, index, col); err != nil {
		return "", err
	}
	if err := tx.Append(col.Key(), node.NewParagraph()); err != nil {
		return "", err
	}
	return col.Key(), c.SetColumnCount(c.ColumnCount() + 1)
}

// RemoveColumn removes a column and lowers its container's count. Removing
// the last column removes the container. It reports whether the container
// survived.
func RemoveColumn(tx *node.Tx, column node.Key) (bool, error) {
	parent := tx.ParentOf(column)
	if !IsColumn(tx.Get(column)) || !IsContainer(parent) {
		return false, fmt.Errorf("%s is not a column in a container", column)
	}
	if parent.ChildCount() == 1 {
		return false, tx.Remove(parent.Key())
	}
	w, err := tx.Writable(parent.Key())
	if err != nil {
		return false, err
	}
	c := w.(*Container)
	if err := tx.Remove(column); err != nil {
		return false, err
	}
	return true, c.SetColumnCount(c.ColumnCount() - 1)
}

type handlers struct {
	s *editor.Session
}

func (h *handlers) insert(p InsertPayload) (bool, error) {
	if p.TotalColumns < 0 {
		return false, fmt.Errorf("%w: totalColumns %d", dispatcher.ErrInvalidPayload, p.TotalColumns)
	}
	handled := false
	err := h.s.Update(func(tx *engine.Tx) error {
		if _, ok := tx.Range(); !ok {
			return nil
		}
		handled = true
		tx.SetLabel("insert-column")
		c, err := Build(tx.Tx, p.TotalColumns)
		if err != nil {
			return err
		}
		if err := editor.InsertNodes(tx, c); err != nil {
			return err
		}
		first := tx.FirstChild(c.Key())
		tx.SetSelection(selection.Caret(editor.StartPoint(tx, first.Key())))
		return nil
	})
	return handled, err
}

// containerOf returns the nearest container above key, or nil.
func containerOf(rd node.Reader, key node.Key) *Container {
	for _, k := range rd.Ancestors(key) {
		if c, ok := rd.Get(k).(*Container); ok {
			return c
		}
	}
	return nil
}

// escape appends an empty paragraph after a container that ends its parent
// when the caret is in the last block of its last column. It never claims
// the command, so the default handler then moves the caret down into the
// new paragraph.
func (h *handlers) escape(editor.KeyEvent) (bool, error) {
	r, ok := selection.AsRange(h.s.Selection())
	if !ok || !r.IsCollapsed() {
		return false, nil
	}
	snap := h.s.Snapshot()
	c := containerOf(snap, r.Focus.Key)
	if c == nil || snap.NextSibling(c.Key()) != nil {
		return false, nil
	}
	lastCol := snap.LastChild(c.Key())
	if lastCol == nil {
		return false, nil
	}
	last := snap.LastChild(lastCol.Key())
	if last == nil || (last.Key() != r.Focus.Key && !snap.IsAncestor(last.Key(), r.Focus.Key)) {
		return false, nil
	}
	return false, h.s.Update(func(tx *engine.Tx) error {
		tx.SetLabel("column-escape")
		return tx.InsertAfter(c.Key(), node.NewParagraph())
	})
}

// deleteStructure removes the column (or container) directly holding the
// anchor when backspace is pressed at offset 0. Whether the column still
// has content is not considered.
func (h *handlers) deleteStructure(p editor.DeleteCharacterPayload) (bool, error) {
	if !p.Backward {
		return false, nil
	}
	r, ok := selection.AsRange(h.s.Selection())
	if !ok || r.Anchor.Offset != 0 {
		return false, nil
	}
	snap := h.s.Snapshot()
	parent := snap.ParentOf(r.Anchor.Key)
	if !IsColumn(parent) && !IsContainer(parent) {
		return false, nil
	}
	return true, h.s.Update(func(tx *engine.Tx) error {
		tx.SetLabel("delete-column")
		if IsColumn(parent) {
			return removeColumn(tx, parent.Key())
		}
		return removeContainer(tx, parent.Key())
	})
}

func removeColumn(tx *engine.Tx, column node.Key) error {
	container := tx.ParentOf(column)
	if container.ChildCount() == 1 {
		return removeContainer(tx, container.Key())
	}
	idx := tx.IndexOf(column)
	if _, err := RemoveColumn(tx.Tx, column); err != nil {
		return err
	}
	kids := tx.Children(container.Key())
	if idx > 0 {
		tx.SetSelection(selection.Caret(editor.EndPoint(tx, kids[idx-1])))
	} else {
		tx.SetSelection(selection.Caret(editor.StartPoint(tx, kids[0])))
	}
	return nil
}

func removeContainer(tx *engine.Tx, container node.Key) error {
	if err := fixCaretAfterRemoval(tx, container); err != nil {
		return err
	}
	return tx.Remove(container)
}

// fixCaretAfterRemoval moves the caret next to key before key is removed.
// When key has no siblings an empty paragraph takes its place.
func fixCaretAfterRemoval(tx *engine.Tx, key node.Key) error {
	switch prev, next := tx.PrevSibling(key), tx.NextSibling(key); {
	case prev != nil:
		tx.SetSelection(selection.Caret(editor.EndPoint(tx, prev.Key())))
	case next != nil:
		tx.SetSelection(selection.Caret(editor.StartPoint(tx, next.Key())))
	default:
		para := node.NewParagraph()
		if err := tx.InsertAfter(key, para); err != nil {
			return err
		}
		tx.SetSelection(selection.Caret(selection.ElementPoint(para.Key(), 0)))
	}
	return nil
}
