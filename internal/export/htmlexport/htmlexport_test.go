package htmlexport_test

import (
	"strings"
	"testing"

	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/export/htmlexport"
	"github.com/dshills/folio/internal/node"
	"github.com/dshills/folio/internal/plugin/column"
	"github.com/dshills/folio/internal/plugin/image"
)

func text(s string, f node.Format) *node.Text {
	t := node.NewText(s)
	if err := t.SetFormat(f); err != nil {
		panic(err)
	}
	return t
}

func TestRenderString(t *testing.T) {
	s := editor.NewSession()
	t.Cleanup(s.Close)
	if err := s.Use(column.New(), image.New()); err != nil {
		t.Fatal(err)
	}
	err := s.Update(func(tx *engine.Tx) error {
		root := tx.RootKey()
		for _, k := range tx.Children(root) {
			if err := tx.Remove(k); err != nil {
				return err
			}
		}
		h := node.NewHeading("h2")
		if err := h.SetAlign(node.AlignCenter); err != nil {
			return err
		}
		if err := tx.Append(root, h); err != nil {
			return err
		}
		if err := tx.Append(h.Key(), text("Title", 0)); err != nil {
			return err
		}

		c, err := column.Build(tx.Tx, 2)
		if err != nil {
			return err
		}
		if err := tx.Append(root, c); err != nil {
			return err
		}
		first := tx.FirstChild(tx.FirstChild(c.Key()).Key())
		for _, n := range []node.Node{
			text("a<b ", 0),
			text("bold", node.FormatBold|node.FormatItalic),
			image.NewImage("a.png", "cap"),
			image.NewPlaceholder("data:image/png;base64,", ""),
		} {
			if err := tx.Append(first.Key(), n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := htmlexport.RenderString(s.Snapshot())
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	want := []string{
		`<div class="folio">`,
		`<h2 style="text-align: center">Title</h2>`,
		`<div class="columns" data-columns="2" style="display: grid; grid-template-columns: repeat(2, 1fr)">`,
		`<div class="column"><p>a&lt;b <strong><em>bold</em></strong><img src="a.png" alt="cap"/></p></div>`,
		`<div class="column"><p></p></div>`,
	}
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("output missing %s\n%s", w, got)
		}
	}
	if strings.Count(got, "<img") != 1 {
		t.Errorf("loading placeholder rendered:\n%s", got)
	}
}

func TestRenderEmpty(t *testing.T) {
	s := editor.NewSession()
	t.Cleanup(s.Close)
	got, err := htmlexport.RenderString(s.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	if want := `<div class="folio"><p></p></div>`; got != want {
		t.Errorf("RenderString = %s, want %s", got, want)
	}
}
