package node

import (
	"errors"
	"strconv"
	"testing"
)

func TestNewKeyUnique(t *testing.T) {
	seen := make(map[Key]bool)
	for i := 0; i < 1000; i++ {
		k := NewKey()
		if seen[k] {
			t.Fatalf("key %s allocated twice", k)
		}
		seen[k] = true
	}
}

func TestReserveKeys(t *testing.T) {
	ReserveKeys("1000000")
	k := NewKey()
	n, err := strconv.ParseUint(string(k), 10, 64)
	if err != nil || n <= 1000000 {
		t.Errorf("NewKey() = %s, want key above reserved floor", k)
	}
	// Non-numeric keys are ignored.
	ReserveKeys("abc")
}

func TestCloneKeepsKey(t *testing.T) {
	p := NewParagraph()
	_ = p.SetAlign(AlignCenter)
	c := p.Clone().(*Paragraph)
	if c.Key() != p.Key() {
		t.Errorf("clone key = %s, want %s", c.Key(), p.Key())
	}
	if c.Align() != AlignCenter {
		t.Errorf("clone align = %q, want center", c.Align())
	}
}

func TestCloneDoesNotShareChildren(t *testing.T) {
	tx := Fork(Empty())
	p := NewParagraph()
	if err := tx.Append(tx.RootKey(), p); err != nil {
		t.Fatal(err)
	}
	if err := tx.Append(p.Key(), NewText("a")); err != nil {
		t.Fatal(err)
	}
	c := p.Clone().(*Paragraph)
	c.children = append(c.children, "zzz")
	if p.ChildCount() != 1 {
		t.Errorf("original child count = %d, want 1", p.ChildCount())
	}
}

func TestFrozenSetterFails(t *testing.T) {
	snap := NewDocument()
	p := snap.FirstChild(snap.RootKey()).(*Paragraph)
	if !p.IsFrozen() {
		t.Fatal("snapshot node should be frozen")
	}
	err := p.SetAlign(AlignRight)
	if !errors.Is(err, ErrIllegalMutation) {
		t.Errorf("SetAlign on frozen node: err = %v, want ErrIllegalMutation", err)
	}
}

func TestWritableClonesIntoTx(t *testing.T) {
	snap := NewDocument()
	pk := snap.FirstChild(snap.RootKey()).Key()

	tx := Fork(snap)
	w, err := tx.Writable(pk)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.(*Paragraph).SetAlign(AlignRight); err != nil {
		t.Fatal(err)
	}
	next, err := tx.Commit()
	if err != nil {
		t.Fatal(err)
	}
	if got := snap.Get(pk).(*Paragraph).Align(); got != AlignNone {
		t.Errorf("base snapshot align = %q, want unchanged", got)
	}
	if got := next.Get(pk).(*Paragraph).Align(); got != AlignRight {
		t.Errorf("new snapshot align = %q, want right", got)
	}
}

func TestMutationAfterCommit(t *testing.T) {
	tx := Fork(Empty())
	if _, err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		fn   func() error
	}{
		{"append", func() error { return tx.Append(tx.RootKey(), NewParagraph()) }},
		{"writable", func() error { _, err := tx.Writable(tx.RootKey()); return err }},
		{"detach", func() error { _, err := tx.Detach("x"); return err }},
		{"remove", func() error { return tx.Remove("x") }},
		{"commit", func() error { _, err := tx.Commit(); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, ErrIllegalMutation) {
				t.Errorf("err = %v, want ErrIllegalMutation", err)
			}
		})
	}
}

func TestAppendAndOrder(t *testing.T) {
	tx := Fork(Empty())
	a, b, c := NewParagraph(), NewParagraph(), NewParagraph()
	root := tx.RootKey()
	if err := tx.Append(root, a); err != nil {
		t.Fatal(err)
	}
	if err := tx.Append(root, c); err != nil {
		t.Fatal(err)
	}
	if err := tx.InsertBefore(c.Key(), b); err != nil {
		t.Fatal(err)
	}
	snap, err := tx.Commit()
	if err != nil {
		t.Fatal(err)
	}
	got := snap.Children(root)
	want := []Key{a.Key(), b.Key(), c.Key()}
	if len(got) != len(want) {
		t.Fatalf("children = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("child[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if snap.NextSibling(a.Key()).Key() != b.Key() {
		t.Error("NextSibling(a) should be b")
	}
	if snap.PrevSibling(c.Key()).Key() != b.Key() {
		t.Error("PrevSibling(c) should be b")
	}
	if snap.IndexOf(c.Key()) != 2 {
		t.Errorf("IndexOf(c) = %d, want 2", snap.IndexOf(c.Key()))
	}
}

func TestInsertParentedNodeFails(t *testing.T) {
	snap := NewDocument()
	p := snap.FirstChild(snap.RootKey())

	tx := Fork(snap)
	q := NewQuote()
	if err := tx.Append(tx.RootKey(), q); err != nil {
		t.Fatal(err)
	}
	err := tx.Append(q.Key(), p)
	if !errors.Is(err, ErrReparent) {
		t.Errorf("err = %v, want ErrReparent", err)
	}
}

func TestDetachThenAttach(t *testing.T) {
	tx := Fork(Empty())
	root := tx.RootKey()
	q := NewQuote()
	p := NewParagraph()
	txt := NewText("moved")
	for _, step := range []error{
		tx.Append(root, q),
		tx.Append(root, p),
		tx.Append(p.Key(), txt),
	} {
		if step != nil {
			t.Fatal(step)
		}
	}
	n, err := tx.Detach(txt.Key())
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Append(q.Key(), n); err != nil {
		t.Fatal(err)
	}
	snap, err := tx.Commit()
	if err != nil {
		t.Fatal(err)
	}
	if snap.Get(txt.Key()).Parent() != q.Key() {
		t.Errorf("text parent = %s, want %s", snap.Get(txt.Key()).Parent(), q.Key())
	}
	if snap.Get(p.Key()).(Element).ChildCount() != 0 {
		t.Error("paragraph should be empty after move")
	}
}

func TestRemoveSubtree(t *testing.T) {
	tx := Fork(Empty())
	p := NewParagraph()
	txt := NewText("x")
	_ = tx.Append(tx.RootKey(), p)
	_ = tx.Append(p.Key(), txt)
	snap, err := tx.Commit()
	if err != nil {
		t.Fatal(err)
	}

	tx = Fork(snap)
	if err := tx.Remove(p.Key()); err != nil {
		t.Fatal(err)
	}
	if got := tx.Removed(); len(got) != 2 {
		t.Errorf("Removed() = %v, want 2 keys", got)
	}
	next, err := tx.Commit()
	if err != nil {
		t.Fatal(err)
	}
	if next.Has(p.Key()) || next.Has(txt.Key()) {
		t.Error("subtree should be gone")
	}
	if !snap.Has(txt.Key()) {
		t.Error("base snapshot must keep the subtree")
	}
}

func TestCommitDropsDetached(t *testing.T) {
	snap := NewDocument()
	pk := snap.FirstChild(snap.RootKey()).Key()
	tx := Fork(snap)
	if _, err := tx.Detach(pk); err != nil {
		t.Fatal(err)
	}
	next, err := tx.Commit()
	if err != nil {
		t.Fatal(err)
	}
	if next.Has(pk) {
		t.Error("detached node should be dropped at commit")
	}
	if next.Len() != 1 {
		t.Errorf("Len() = %d, want 1", next.Len())
	}
}

func TestRootImmutable(t *testing.T) {
	tx := Fork(Empty())
	if err := tx.Remove(tx.RootKey()); !errors.Is(err, ErrRootImmutable) {
		t.Errorf("Remove(root) err = %v", err)
	}
	if _, err := tx.Detach(tx.RootKey()); !errors.Is(err, ErrRootImmutable) {
		t.Errorf("Detach(root) err = %v", err)
	}
}

func TestCycle(t *testing.T) {
	tx := Fork(Empty())
	q := NewQuote()
	inner := NewQuote()
	_ = tx.Append(tx.RootKey(), q)
	_ = tx.Append(q.Key(), inner)
	n, err := tx.Detach(q.Key())
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Append(inner.Key(), n); !errors.Is(err, ErrCycle) {
		t.Errorf("err = %v, want ErrCycle", err)
	}
}

func TestAppendToLeaf(t *testing.T) {
	tx := Fork(Empty())
	p := NewParagraph()
	txt := NewText("a")
	_ = tx.Append(tx.RootKey(), p)
	_ = tx.Append(p.Key(), txt)
	if err := tx.Append(txt.Key(), NewText("b")); !errors.Is(err, ErrNotElement) {
		t.Errorf("err = %v, want ErrNotElement", err)
	}
}

func TestReplace(t *testing.T) {
	snap := NewDocument()
	pk := snap.FirstChild(snap.RootKey()).Key()
	tx := Fork(snap)
	h := NewHeading("h2")
	if err := tx.Replace(pk, h); err != nil {
		t.Fatal(err)
	}
	next, err := tx.Commit()
	if err != nil {
		t.Fatal(err)
	}
	if next.FirstChild(next.RootKey()).Key() != h.Key() {
		t.Error("heading should replace paragraph")
	}
}

func TestTextContent(t *testing.T) {
	tx := Fork(Empty())
	for _, s := range []string{"one", "two"} {
		p := NewParagraph()
		_ = tx.Append(tx.RootKey(), p)
		_ = tx.Append(p.Key(), NewText(s))
	}
	snap, _ := tx.Commit()
	if got := snap.TextContent(snap.RootKey()); got != "one\n\ntwo" {
		t.Errorf("TextContent = %q", got)
	}
}

func TestFormatToggle(t *testing.T) {
	f := Format(0).Toggle(FormatBold)
	if !f.Has(FormatBold) {
		t.Error("bold should be set")
	}
	f = f.Toggle(FormatSubscript).Toggle(FormatSuperscript)
	if f.Has(FormatSubscript) {
		t.Error("superscript should clear subscript")
	}
	if got := f.String(); got != "bold|superscript" {
		t.Errorf("String() = %q", got)
	}
	if _, err := ParseFormat("blink"); err == nil {
		t.Error("expected error for unknown format")
	}
}
