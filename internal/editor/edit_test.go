package editor

import (
	"testing"

	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/node"
	"github.com/dshills/folio/internal/schema"
	"github.com/dshills/folio/internal/selection"
)

// build returns a snapshot with one paragraph per string and the keys of
// the paragraphs and their text nodes.
func build(t *testing.T, texts ...string) (*node.Snapshot, []node.Key, []node.Key) {
	t.Helper()
	tx := node.Fork(node.Empty())
	var paras, runs []node.Key
	for _, s := range texts {
		p := node.NewParagraph()
		if err := tx.Append(tx.RootKey(), p); err != nil {
			t.Fatal(err)
		}
		paras = append(paras, p.Key())
		if s == "" {
			continue
		}
		txt := node.NewText(s)
		if err := tx.Append(p.Key(), txt); err != nil {
			t.Fatal(err)
		}
		runs = append(runs, txt.Key())
	}
	snap, err := tx.Commit()
	if err != nil {
		t.Fatal(err)
	}
	return snap, paras, runs
}

func commit(t *testing.T, tx *node.Tx) *node.Snapshot {
	t.Helper()
	snap, err := tx.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return snap
}

func blockTexts(rd node.Reader) []string {
	var out []string
	for _, k := range Blocks(rd) {
		out = append(out, rd.TextContent(k))
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStartEndPoint(t *testing.T) {
	snap, paras, runs := build(t, "hello", "")
	tests := []struct {
		name string
		got  selection.Point
		want selection.Point
	}{
		{"start of text block", StartPoint(snap, paras[0]), selection.TextPoint(runs[0], 0)},
		{"end of text block", EndPoint(snap, paras[0]), selection.TextPoint(runs[0], 5)},
		{"empty block start", StartPoint(snap, paras[1]), selection.ElementPoint(paras[1], 0)},
		{"empty block end", EndPoint(snap, paras[1]), selection.ElementPoint(paras[1], 0)},
		{"root descends", StartPoint(snap, snap.RootKey()), selection.TextPoint(runs[0], 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestSplitText(t *testing.T) {
	snap, paras, runs := build(t, "héllo")
	tx := node.Fork(snap)
	// Offset 2 falls inside the two-byte é and is floored to 1.
	right, err := SplitText(tx, runs[0], 2)
	if err != nil {
		t.Fatal(err)
	}
	if right == "" {
		t.Fatal("no split")
	}
	if got := tx.Get(runs[0]).(*node.Text).Text(); got != "h" {
		t.Errorf("left = %q, want %q", got, "h")
	}
	if got := tx.Get(right).(*node.Text).Text(); got != "éllo" {
		t.Errorf("right = %q", got)
	}
	if got := len(tx.Children(paras[0])); got != 2 {
		t.Errorf("children = %d, want 2", got)
	}
	if k, _ := SplitText(tx, runs[0], 0); k != "" {
		t.Error("split at offset 0 should be a no-op")
	}
}

func TestSplitBlock(t *testing.T) {
	t.Run("middle", func(t *testing.T) {
		snap, paras, runs := build(t, "hello")
		tx := node.Fork(snap)
		nb, err := SplitBlock(tx, selection.TextPoint(runs[0], 2))
		if err != nil {
			t.Fatal(err)
		}
		if tx.IndexOf(nb) != tx.IndexOf(paras[0])+1 {
			t.Error("new block not after original")
		}
		got := blockTexts(commit(t, tx))
		if !equalStrings(got, []string{"he", "llo"}) {
			t.Errorf("blocks = %q", got)
		}
	})
	t.Run("heading end continues as paragraph", func(t *testing.T) {
		tx := node.Fork(node.Empty())
		h := node.NewHeading("h2")
		txt := node.NewText("Title")
		if err := tx.Append(tx.RootKey(), h); err != nil {
			t.Fatal(err)
		}
		if err := tx.Append(h.Key(), txt); err != nil {
			t.Fatal(err)
		}
		nb, err := SplitBlock(tx, selection.TextPoint(txt.Key(), 5))
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := tx.Get(nb).(*node.Paragraph); !ok {
			t.Errorf("new block is %s, want paragraph", tx.Get(nb).Type())
		}
	})
	t.Run("heading middle keeps tag", func(t *testing.T) {
		tx := node.Fork(node.Empty())
		h := node.NewHeading("h3")
		txt := node.NewText("Title")
		_ = tx.Append(tx.RootKey(), h)
		_ = tx.Append(h.Key(), txt)
		nb, err := SplitBlock(tx, selection.TextPoint(txt.Key(), 2))
		if err != nil {
			t.Fatal(err)
		}
		nh, ok := tx.Get(nb).(*node.Heading)
		if !ok || nh.Tag() != "h3" {
			t.Errorf("new block = %#v, want h3 heading", tx.Get(nb))
		}
	})
	t.Run("outside block", func(t *testing.T) {
		snap, _, _ := build(t, "x")
		tx := node.Fork(snap)
		if _, err := SplitBlock(tx, selection.ElementPoint(tx.RootKey(), 0)); err == nil {
			t.Error("expected ErrNotBlock")
		}
	})
}

func TestMergeBlocks(t *testing.T) {
	snap, paras, runs := build(t, "foo", "bar")
	tx := node.Fork(snap)
	caret, err := MergeBlocks(tx, paras[0], paras[1])
	if err != nil {
		t.Fatal(err)
	}
	if caret != selection.TextPoint(runs[0], 3) {
		t.Errorf("caret = %v", caret)
	}
	got := commit(t, tx)
	if got.Has(paras[1]) {
		t.Error("right block survived")
	}
	if n := len(got.Children(paras[0])); n != 1 {
		t.Errorf("text runs = %d, want 1 after normalization", n)
	}
	if s := got.TextContent(paras[0]); s != "foobar" {
		t.Errorf("text = %q", s)
	}
}

func TestDeleteRange(t *testing.T) {
	t.Run("within one text", func(t *testing.T) {
		snap, _, runs := build(t, "hello")
		tx := node.Fork(snap)
		caret, err := DeleteRange(tx, selection.NewRange(
			selection.TextPoint(runs[0], 4), selection.TextPoint(runs[0], 1)))
		if err != nil {
			t.Fatal(err)
		}
		if caret != selection.TextPoint(runs[0], 1) {
			t.Errorf("caret = %v", caret)
		}
		if got := blockTexts(commit(t, tx)); !equalStrings(got, []string{"ho"}) {
			t.Errorf("blocks = %q", got)
		}
	})
	t.Run("across blocks", func(t *testing.T) {
		snap, _, runs := build(t, "alpha", "beta", "gamma")
		tx := node.Fork(snap)
		caret, err := DeleteRange(tx, selection.NewRange(
			selection.TextPoint(runs[0], 2), selection.TextPoint(runs[2], 3)))
		if err != nil {
			t.Fatal(err)
		}
		got := commit(t, tx)
		if texts := blockTexts(got); !equalStrings(texts, []string{"alma"}) {
			t.Errorf("blocks = %q", texts)
		}
		if caret != selection.TextPoint(runs[0], 2) {
			t.Errorf("caret = %v", caret)
		}
	})
	t.Run("collapsed", func(t *testing.T) {
		snap, _, runs := build(t, "x")
		tx := node.Fork(snap)
		p := selection.TextPoint(runs[0], 1)
		caret, err := DeleteRange(tx, selection.Caret(p))
		if err != nil || caret != p || tx.Changed() {
			t.Errorf("caret = %v, err = %v, changed = %v", caret, err, tx.Changed())
		}
	})
}

func TestInsertTextAt(t *testing.T) {
	snap, paras, runs := build(t, "ac", "")
	tests := []struct {
		name  string
		at    selection.Point
		block node.Key
		want  string
	}{
		{"inside text", selection.TextPoint(runs[0], 1), paras[0], "abc"},
		{"empty block", selection.ElementPoint(paras[1], 0), paras[1], "b"},
		{"element point before text", selection.ElementPoint(paras[0], 0), paras[0], "bac"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := node.Fork(snap)
			caret, err := InsertTextAt(tx, tt.at, "b")
			if err != nil {
				t.Fatal(err)
			}
			if got := tx.TextContent(tt.block); got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
			if _, ok := tx.Get(caret.Key).(*node.Text); !ok {
				t.Errorf("caret %v not on text", caret)
			}
		})
	}
	t.Run("root wraps in paragraph", func(t *testing.T) {
		tx := node.Fork(snap)
		if _, err := InsertTextAt(tx, selection.ElementPoint(tx.RootKey(), 2), "z"); err != nil {
			t.Fatal(err)
		}
		got := blockTexts(commit(t, tx))
		if !equalStrings(got, []string{"ac", "", "z"}) {
			t.Errorf("blocks = %q", got)
		}
	})
}

func TestInsertNodes(t *testing.T) {
	newEngine := func(t *testing.T, texts ...string) (*engine.Engine, []node.Key, []node.Key) {
		t.Helper()
		snap, paras, runs := build(t, texts...)
		return engine.New(schema.DefaultRegistry(), engine.WithInitialSnapshot(snap)), paras, runs
	}

	t.Run("block replaces empty caret block", func(t *testing.T) {
		e, paras, _ := newEngine(t, "one", "")
		q := node.NewQuote()
		err := e.Update(func(tx *engine.Tx) error {
			tx.SetSelection(selection.Caret(selection.ElementPoint(paras[1], 0)))
			return InsertNodes(tx, q)
		})
		if err != nil {
			t.Fatal(err)
		}
		snap := e.Snapshot()
		if snap.Has(paras[1]) {
			t.Error("empty block was not replaced")
		}
		if snap.IndexOf(q.Key()) != 1 {
			t.Errorf("quote index = %d, want 1", snap.IndexOf(q.Key()))
		}
	})
	t.Run("block splits caret block", func(t *testing.T) {
		e, _, runs := newEngine(t, "abcd")
		q := node.NewQuote()
		err := e.Update(func(tx *engine.Tx) error {
			tx.SetSelection(selection.Caret(selection.TextPoint(runs[0], 2)))
			return InsertNodes(tx, q)
		})
		if err != nil {
			t.Fatal(err)
		}
		snap := e.Snapshot()
		if got := blockTexts(snap); !equalStrings(got, []string{"ab", "", "cd"}) {
			t.Errorf("blocks = %q", got)
		}
		if r, ok := selection.AsRange(e.Selection()); !ok || r.Focus.Key != q.Key() {
			t.Errorf("selection = %v, want caret in quote", e.Selection())
		}
	})
	t.Run("block after caret block end", func(t *testing.T) {
		e, paras, runs := newEngine(t, "ab")
		q := node.NewQuote()
		_ = e.Update(func(tx *engine.Tx) error {
			tx.SetSelection(selection.Caret(selection.TextPoint(runs[0], 2)))
			return InsertNodes(tx, q)
		})
		snap := e.Snapshot()
		if snap.IndexOf(q.Key()) != snap.IndexOf(paras[0])+1 {
			t.Error("quote not after caret block")
		}
	})
	t.Run("no selection appends to root", func(t *testing.T) {
		e, _, _ := newEngine(t, "ab")
		q := node.NewQuote()
		_ = e.Update(func(tx *engine.Tx) error {
			tx.SetSelection(nil)
			return InsertNodes(tx, q)
		})
		snap := e.Snapshot()
		if snap.LastChild(snap.RootKey()).Key() != q.Key() {
			t.Error("quote not appended to root")
		}
	})
	t.Run("range is deleted first", func(t *testing.T) {
		e, _, runs := newEngine(t, "abcdef")
		q := node.NewQuote()
		err := e.Update(func(tx *engine.Tx) error {
			tx.SetSelection(selection.NewRange(
				selection.TextPoint(runs[0], 1), selection.TextPoint(runs[0], 5)))
			return InsertNodes(tx, q)
		})
		if err != nil {
			t.Fatal(err)
		}
		if got := blockTexts(e.Snapshot()); !equalStrings(got, []string{"a", "", "f"}) {
			t.Errorf("blocks = %q", got)
		}
	})
}
