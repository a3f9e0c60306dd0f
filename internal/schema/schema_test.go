package schema

import (
	"bytes"
	"errors"
	"strconv"
	"testing"

	"github.com/dshills/folio/internal/node"
)

func buildDoc(t *testing.T) *node.Snapshot {
	t.Helper()
	tx := node.Fork(node.Empty())
	h := node.NewHeading("h2")
	if err := h.SetAlign(node.AlignCenter); err != nil {
		t.Fatal(err)
	}
	p := node.NewParagraph()
	q := node.NewQuote()
	bold := node.NewText("bold \"quoted\" text")
	if err := bold.SetFormat(node.FormatBold | node.FormatItalic); err != nil {
		t.Fatal(err)
	}
	for _, step := range []struct {
		parent node.Key
		n      node.Node
	}{
		{tx.RootKey(), h},
		{h.Key(), node.NewText("Title")},
		{tx.RootKey(), p},
		{p.Key(), node.NewText("plain ")},
		{p.Key(), bold},
		{tx.RootKey(), q},
		{q.Key(), node.NewText("héllo wörld")},
		{tx.RootKey(), node.NewParagraph()},
	} {
		if err := tx.Append(step.parent, step.n); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	snap, err := tx.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return snap
}

func TestRoundTripIsByteIdentical(t *testing.T) {
	reg := DefaultRegistry()
	snap := buildDoc(t)

	doc, err := reg.ExportDocument(snap)
	if err != nil {
		t.Fatalf("ExportDocument: %v", err)
	}
	first, err := doc.Root.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}

	raw, err := Encode(doc)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	imported, err := reg.ImportDocument(decoded)
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}
	doc2, err := reg.ExportDocument(imported)
	if err != nil {
		t.Fatal(err)
	}
	second, err := doc2.Root.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("round trip differs\nfirst:  %s\nsecond: %s", first, second)
	}
	if imported.TextContent(imported.RootKey()) != snap.TextContent(snap.RootKey()) {
		t.Errorf("text content changed")
	}
}

func TestRoundTripPerType(t *testing.T) {
	reg := DefaultRegistry()
	tests := []struct {
		name  string
		typ   string
		props Props
	}{
		{"paragraph", node.TypeParagraph, Props{}},
		{"paragraph aligned", node.TypeParagraph, Props{"align": "right"}},
		{"heading", node.TypeHeading, Props{"tag": "h6", "align": "justify"}},
		{"quote", node.TypeQuote, Props{}},
		{"text", node.TypeText, Props{"text": "a.b*c?", "format": int(node.FormatCode | node.FormatSubscript)}},
		{"empty text", node.TypeText, Props{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := reg.Create(tt.typ, tt.props)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			tx := node.Fork(node.Empty())
			if err := tx.Create(n); err != nil {
				t.Fatal(err)
			}
			rec, err := reg.Export(tx, n.Key())
			if err != nil {
				t.Fatalf("Export: %v", err)
			}
			want, _ := rec.MarshalJSON()

			var back Record
			if err := back.UnmarshalJSON(want); err != nil {
				t.Fatalf("UnmarshalJSON: %v", err)
			}
			m, err := reg.Import(tx, back)
			if err != nil {
				t.Fatalf("Import: %v", err)
			}
			if m.Key() == n.Key() {
				t.Errorf("import reused key %s", m.Key())
			}
			rec2, err := reg.Export(tx, m.Key())
			if err != nil {
				t.Fatal(err)
			}
			got, _ := rec2.MarshalJSON()
			if !bytes.Equal(want, got) {
				t.Errorf("got %s, want %s", got, want)
			}
		})
	}
}

func TestElementRecordsAlwaysCarryChildren(t *testing.T) {
	reg := DefaultRegistry()
	snap := node.NewDocument()
	p := snap.FirstChild(snap.RootKey())
	rec, err := reg.Export(snap, p.Key())
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := rec.MarshalJSON()
	if want := `{"type":"paragraph","version":1,"children":[]}`; string(raw) != want {
		t.Errorf("got %s, want %s", raw, want)
	}

	txt, err := reg.Create(node.TypeText, Props{"text": "x"})
	if err != nil {
		t.Fatal(err)
	}
	tx := node.Fork(snap)
	_ = tx.Create(txt)
	rec, _ = reg.Export(tx, txt.Key())
	if rec.Children != nil {
		t.Errorf("leaf record has children")
	}
}

func TestImportUnknownSchema(t *testing.T) {
	reg := DefaultRegistry()
	tests := []struct {
		name    string
		rec     Record
		version int
	}{
		{"unknown type", Record{Type: "table", Version: 1, Children: []Record{}}, 1},
		{"newer version", Record{Type: node.TypeParagraph, Version: 2, Children: []Record{}}, 2},
		{"zero version", Record{Type: node.TypeText, Version: 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := node.Fork(node.Empty())
			_, err := reg.Import(tx, tt.rec)
			if !errors.Is(err, ErrUnknownSchema) {
				t.Fatalf("got %v, want ErrUnknownSchema", err)
			}
			var use *UnknownSchemaError
			if !errors.As(err, &use) {
				t.Fatalf("not an *UnknownSchemaError: %T", err)
			}
			if use.Type != tt.rec.Type || use.Version != tt.version {
				t.Errorf("got %s@%d", use.Type, use.Version)
			}
		})
	}
}

func TestImportNestedUnknownFailsDocument(t *testing.T) {
	reg := DefaultRegistry()
	data := []byte(`{"root":{"type":"root","version":1,"children":[
		{"type":"paragraph","version":1,"children":[{"type":"mystery","version":1}]}]}}`)
	if _, err := reg.Unmarshal(data); !errors.Is(err, ErrUnknownSchema) {
		t.Fatalf("got %v, want ErrUnknownSchema", err)
	}
}

func TestMigrations(t *testing.T) {
	reg := NewRegistry()
	for typ, b := range coreBehaviors() {
		if typ == node.TypeText {
			continue
		}
		if err := reg.Register(typ, b); err != nil {
			t.Fatal(err)
		}
	}
	text := coreBehaviors()[node.TypeText]
	text.Version = 3
	text.Migrations = map[int]func(Record) (Record, error){
		// v1 stored the body under "value".
		1: func(r Record) (Record, error) {
			v, _ := r.String("value")
			delete(r.Attrs, "value")
			r.SetAttr("text", v)
			return r, nil
		},
		2: func(r Record) (Record, error) {
			if _, ok := r.Int("format"); !ok {
				r.SetAttr("format", 0)
			}
			return r, nil
		},
	}
	if err := reg.Register(node.TypeText, text); err != nil {
		t.Fatal(err)
	}

	tx := node.Fork(node.Empty())
	n, err := reg.Import(tx, Record{Type: node.TypeText, Version: 1, Attrs: map[string]any{"value": "old"}})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got := n.(*node.Text).Text(); got != "old" {
		t.Errorf("text = %q, want old", got)
	}
	rec, _ := reg.Export(tx, n.Key())
	if rec.Version != 3 {
		t.Errorf("exported version %d, want 3", rec.Version)
	}

	delete(text.Migrations, 1)
	reg2 := NewRegistry()
	if err := reg2.Register(node.TypeText, text); err != nil {
		t.Fatal(err)
	}
	_, err = reg2.Import(node.Fork(node.Empty()), Record{Type: node.TypeText, Version: 1})
	if !errors.Is(err, ErrUnknownSchema) {
		t.Errorf("missing migration: got %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := DefaultRegistry()
	err := reg.Register(node.TypeText, coreBehaviors()[node.TypeText])
	if !errors.Is(err, ErrDuplicateType) {
		t.Errorf("got %v, want ErrDuplicateType", err)
	}
}

func TestReservedAttribute(t *testing.T) {
	rec := Record{Type: "x", Version: 1, Attrs: map[string]any{"children": 1}}
	if _, err := rec.MarshalJSON(); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("got %v, want ErrInvalidRecord", err)
	}
}

func TestImportDocumentReservesKeys(t *testing.T) {
	reg := DefaultRegistry()
	data := []byte(`{"root":{"type":"root","version":1,"children":[]},"lastKey":"900000"}`)
	if _, err := reg.Unmarshal(data); err != nil {
		t.Fatal(err)
	}
	k, err := strconv.ParseUint(string(node.NewKey()), 10, 64)
	if err != nil {
		t.Fatal(err)
	}
	if k <= 900000 {
		t.Errorf("key %d was not above the reserved floor", k)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []string{
		`{`,
		`{"lastKey":"1"}`,
		`{"root":{"version":1}}`,
		`{"root":{"type":"root","version":"1"}}`,
		`{"root":{"type":"root","version":1,"children":{}}}`,
	}
	for _, in := range tests {
		if _, err := Decode([]byte(in)); !errors.Is(err, ErrInvalidRecord) {
			t.Errorf("Decode(%s) = %v, want ErrInvalidRecord", in, err)
		}
	}
}
