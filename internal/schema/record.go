package schema

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Record is the serialized form of one node and its subtree.
type Record struct {
	Type    string
	Version int
	Attrs   map[string]any

	// Children is nil for leaves and non-nil (possibly empty) for elements.
	Children []Record
}

// reserved record fields that attributes may not use.
var reserved = []string{"type", "version", "children"}

// String returns attribute name as a string.
func (r Record) String(name string) (string, bool) {
	s, ok := r.Attrs[name].(string)
	return s, ok
}

// Int returns attribute name as an int. JSON numbers decode as float64 and
// are accepted when integral.
func (r Record) Int(name string) (int, bool) {
	switch v := r.Attrs[name].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}

// SetAttr sets an attribute, allocating the map as needed.
func (r *Record) SetAttr(name string, v any) {
	if r.Attrs == nil {
		r.Attrs = make(map[string]any)
	}
	r.Attrs[name] = v
}

// MarshalJSON writes the flat record form with attributes in sorted order.
func (r Record) MarshalJSON() ([]byte, error) {
	out := []byte(`{}`)
	var err error
	if out, err = sjson.SetBytes(out, "type", r.Type); err != nil {
		return nil, err
	}
	if out, err = sjson.SetBytes(out, "version", r.Version); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(r.Attrs))
	for k := range r.Attrs {
		if slices.Contains(reserved, k) {
			return nil, fmt.Errorf("%w: attribute %q of %s is reserved", ErrInvalidRecord, k, r.Type)
		}
		names = append(names, k)
	}
	slices.Sort(names)
	for _, k := range names {
		if out, err = sjson.SetBytes(out, escapePath(k), r.Attrs[k]); err != nil {
			return nil, fmt.Errorf("attribute %q of %s: %w", k, r.Type, err)
		}
	}
	if r.Children != nil {
		kids := make([][]byte, 0, len(r.Children))
		for _, c := range r.Children {
			raw, err := c.MarshalJSON()
			if err != nil {
				return nil, err
			}
			kids = append(kids, raw)
		}
		arr := append(append([]byte{'['}, bytes.Join(kids, []byte{','})...), ']')
		if out, err = sjson.SetRawBytes(out, "children", arr); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UnmarshalJSON reads the flat record form.
func (r *Record) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%w: malformed JSON", ErrInvalidRecord)
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return fmt.Errorf("%w: record is not an object", ErrInvalidRecord)
	}
	return r.fromResult(res)
}

func (r *Record) fromResult(res gjson.Result) error {
	*r = Record{}
	var err error
	res.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "type":
			if value.Type != gjson.String {
				err = fmt.Errorf("%w: type must be a string", ErrInvalidRecord)
				return false
			}
			r.Type = value.String()
		case "version":
			if value.Type != gjson.Number || value.Num != float64(int(value.Num)) {
				err = fmt.Errorf("%w: version must be an integer", ErrInvalidRecord)
				return false
			}
			r.Version = int(value.Int())
		case "children":
			if !value.IsArray() {
				err = fmt.Errorf("%w: children must be an array", ErrInvalidRecord)
				return false
			}
			r.Children = []Record{}
			value.ForEach(func(_, item gjson.Result) bool {
				var c Record
				if !item.IsObject() {
					err = fmt.Errorf("%w: child is not an object", ErrInvalidRecord)
					return false
				}
				if err = c.fromResult(item); err != nil {
					return false
				}
				r.Children = append(r.Children, c)
				return true
			})
			if err != nil {
				return false
			}
		default:
			r.SetAttr(key.String(), value.Value())
		}
		return true
	})
	if err != nil {
		return err
	}
	if r.Type == "" {
		return fmt.Errorf("%w: missing type", ErrInvalidRecord)
	}
	return nil
}

// Document is the serialized envelope for a whole tree.
type Document struct {
	Root    Record
	LastKey string
}

// MarshalJSON writes {"root": ..., "lastKey": ...}.
func (d Document) MarshalJSON() ([]byte, error) {
	root, err := d.Root.MarshalJSON()
	if err != nil {
		return nil, err
	}
	out, err := sjson.SetRawBytes([]byte(`{}`), "root", root)
	if err != nil {
		return nil, err
	}
	if d.LastKey != "" {
		if out, err = sjson.SetBytes(out, "lastKey", d.LastKey); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UnmarshalJSON reads the document envelope.
func (d *Document) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%w: malformed JSON", ErrInvalidRecord)
	}
	root := gjson.GetBytes(data, "root")
	if !root.IsObject() {
		return fmt.Errorf("%w: document has no root record", ErrInvalidRecord)
	}
	*d = Document{LastKey: gjson.GetBytes(data, "lastKey").String()}
	return d.Root.fromResult(root)
}

// Encode returns the indented JSON form of doc.
func Encode(doc Document) ([]byte, error) {
	raw, err := doc.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return pretty.PrettyOptions(raw, &pretty.Options{Width: 80, Indent: "  "}), nil
}

// Decode parses a document.
func Decode(data []byte) (Document, error) {
	var doc Document
	err := doc.UnmarshalJSON(data)
	return doc, err
}

// escapePath escapes sjson path metacharacters in a single key.
func escapePath(k string) string {
	var b strings.Builder
	for _, c := range k {
		switch c {
		case '.', '*', '?', '|', '#', '@', '\\', ':':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
