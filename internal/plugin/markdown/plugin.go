package markdown

import (
	"slices"
	"strings"

	"github.com/dshills/folio/internal/dispatcher"
	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/node"
	"github.com/dshills/folio/internal/selection"
)

// ImportPayload configures IMPORT_MARKDOWN_COMMAND.
type ImportPayload struct {
	Markdown string `json:"markdown"`

	// Replace swaps the whole document instead of inserting at the
	// selection.
	Replace bool `json:"replace,omitempty"`
}

// ImportMarkdown parses Markdown into the document.
var ImportMarkdown = dispatcher.NewCommand[ImportPayload]("IMPORT_MARKDOWN_COMMAND")

// Plugin registers Markdown import and the block shortcuts.
type Plugin struct{}

// New returns the markdown plugin.
func New() *Plugin { return &Plugin{} }

// Name implements editor.Plugin.
func (*Plugin) Name() string { return "markdown" }

// Register implements editor.Plugin.
func (*Plugin) Register(s *editor.Session) (func(), error) {
	h := &handlers{s: s}
	unregister := []func(){
		dispatcher.Register(s.Bus, ImportMarkdown, dispatcher.PriorityEditor, h.importMarkdown),
		dispatcher.Register(s.Bus, editor.InsertText, dispatcher.PriorityHigh, h.shortcut),
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

func (h *handlers) importMarkdown(p ImportPayload) (bool, error) {
	err := h.s.Update(func(tx *engine.Tx) error {
		tx.SetLabel("import-markdown")
		if !p.Replace {
			blocks, err := Parse(tx, []byte(p.Markdown))
			if err != nil {
				return err
			}
			return editor.InsertNodes(tx, blocks...)
		}
		root := tx.RootKey()
		for _, k := range slices.Clone(tx.Children(root)) {
			if err := tx.Remove(k); err != nil {
				return err
			}
		}
		if err := Import(tx, root, []byte(p.Markdown)); err != nil {
			return err
		}
		if tx.FirstChild(root) == nil {
			if err := tx.Append(root, node.NewParagraph()); err != nil {
				return err
			}
		}
		tx.SetSelection(selection.Caret(editor.StartPoint(tx, tx.FirstChild(root).Key())))
		return nil
	})
	return err == nil, err
}

// shortcutBlock returns the block a typed prefix converts a paragraph to.
func shortcutBlock(prefix string) (node.TextBlock, bool) {
	if prefix == ">" {
		return node.NewQuote(), true
	}
	if n := len(prefix); n >= 1 && n <= 6 && strings.Count(prefix, "#") == n {
		return node.NewHeading(headingTag(n)), true
	}
	return nil, false
}

// shortcut converts a paragraph when a space is typed right after "#" to
// "######" or ">" at its start. Any other input falls through.
func (h *handlers) shortcut(text string) (bool, error) {
	if text != " " {
		return false, nil
	}
	handled := false
	err := h.s.Update(func(tx *engine.Tx) error {
		r, ok := tx.Range()
		if !ok || !r.IsCollapsed() || r.Focus.Kind != selection.PointText {
			return nil
		}
		t, ok := tx.Get(r.Focus.Key).(*node.Text)
		if !ok {
			return nil
		}
		para, ok := tx.ParentOf(t.Key()).(*node.Paragraph)
		if !ok || tx.IndexOf(t.Key()) != 0 {
			return nil
		}
		nb, ok := shortcutBlock(t.Text()[:r.Focus.Offset])
		if !ok {
			return nil
		}
		handled = true
		tx.SetLabel("markdown-shortcut")

		rest := t.Text()[r.Focus.Offset:]
		if rest == "" {
			if err := tx.Remove(t.Key()); err != nil {
				return err
			}
		} else {
			w, err := tx.Writable(t.Key())
			if err != nil {
				return err
			}
			if err := w.(*node.Text).SetText(rest); err != nil {
				return err
			}
		}
		if err := editor.ReplaceBlock(tx.Tx, para.Key(), nb); err != nil {
			return err
		}
		tx.SetSelection(selection.Caret(editor.StartPoint(tx, nb.Key())))
		return nil
	})
	return handled, err
}
