package schema

import (
	"fmt"
	"slices"
	"sync"

	"github.com/dshills/folio/internal/node"
)

// Props are constructor arguments for Registry.Create.
type Props map[string]any

// String returns a string prop or def.
func (p Props) String(name, def string) string {
	if s, ok := p[name].(string); ok {
		return s
	}
	return def
}

// Int returns an integer prop or def.
func (p Props) Int(name string, def int) int {
	switch v := p[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// Bool returns a boolean prop or def.
func (p Props) Bool(name string, def bool) bool {
	if b, ok := p[name].(bool); ok {
		return b
	}
	return def
}

// Behavior is the per-type table used to create, import and export nodes.
type Behavior struct {
	// Version is the current record version.
	Version int

	// Create builds a new detached node from props.
	Create func(props Props) (node.Node, error)

	// Import builds a detached node from the attributes of a record that has
	// already been migrated to Version. Children are handled by the registry.
	Import func(rec Record) (node.Node, error)

	// Export returns the record attributes of n. Type, version and children
	// are filled in by the registry. Export must be pure.
	Export func(n node.Node) (map[string]any, error)

	// Migrations upgrade a record from the key version to the next one.
	Migrations map[int]func(Record) (Record, error)
}

// Registry maps type tags to behaviors.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Behavior
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]Behavior)}
}

// DefaultRegistry returns a registry holding the core node types.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for typ, b := range coreBehaviors() {
		if err := r.Register(typ, b); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a node type.
func (r *Registry) Register(typ string, b Behavior) error {
	if typ == "" {
		return fmt.Errorf("register: empty type tag")
	}
	if b.Version < 1 {
		return fmt.Errorf("register %s: version must be >= 1", typ)
	}
	if b.Create == nil || b.Import == nil || b.Export == nil {
		return fmt.Errorf("register %s: create, import and export are required", typ)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[typ]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateType, typ)
	}
	r.types[typ] = b
	return nil
}

// Has reports whether typ is registered.
func (r *Registry) Has(typ string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[typ]
	return ok
}

// Types returns the registered type tags in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.types))
	for t := range r.types {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Version returns the current record version of typ, or 0.
func (r *Registry) Version(typ string) int {
	b, _ := r.behavior(typ)
	return b.Version
}

func (r *Registry) behavior(typ string) (Behavior, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.types[typ]
	return b, ok
}

// Create builds a new detached node of typ.
func (r *Registry) Create(typ string, props Props) (node.Node, error) {
	b, ok := r.behavior(typ)
	if !ok {
		return nil, &UnknownSchemaError{Type: typ, Reason: "type not registered"}
	}
	n, err := b.Create(props)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", typ, err)
	}
	return n, nil
}

// Export serializes the subtree rooted at key.
func (r *Registry) Export(rd node.Reader, key node.Key) (Record, error) {
	n := rd.Get(key)
	if n == nil {
		return Record{}, fmt.Errorf("export: %w: %s", node.ErrNodeNotFound, key)
	}
	b, ok := r.behavior(n.Type())
	if !ok {
		return Record{}, &UnknownSchemaError{Type: n.Type(), Reason: "type not registered"}
	}
	attrs, err := b.Export(n)
	if err != nil {
		return Record{}, fmt.Errorf("export %s %s: %w", n.Type(), key, err)
	}
	rec := Record{Type: n.Type(), Version: b.Version, Attrs: attrs}
	if len(rec.Attrs) == 0 {
		rec.Attrs = nil
	}
	if e, ok := n.(node.Element); ok {
		rec.Children = make([]Record, 0, e.ChildCount())
		for _, c := range e.Children() {
			cr, err := r.Export(rd, c)
			if err != nil {
				return Record{}, err
			}
			rec.Children = append(rec.Children, cr)
		}
	}
	return rec, nil
}

// migrate upgrades rec to the registered version.
func (r *Registry) migrate(b Behavior, rec Record) (Record, error) {
	if rec.Version < 1 || rec.Version > b.Version {
		return rec, &UnknownSchemaError{Type: rec.Type, Version: rec.Version, Reason: fmt.Sprintf("supported version is %d", b.Version)}
	}
	for rec.Version < b.Version {
		m := b.Migrations[rec.Version]
		if m == nil {
			return rec, &UnknownSchemaError{Type: rec.Type, Version: rec.Version, Reason: "no migration path"}
		}
		from := rec.Version
		next, err := m(rec)
		if err != nil {
			return rec, fmt.Errorf("migrate %s@%d: %w", rec.Type, from, err)
		}
		next.Type = rec.Type
		next.Version = from + 1
		rec = next
	}
	return rec, nil
}

// Import builds the subtree described by rec inside tx. The returned node
// is parentless; the caller inserts it. Imported nodes receive new keys.
func (r *Registry) Import(tx *node.Tx, rec Record) (node.Node, error) {
	b, ok := r.behavior(rec.Type)
	if !ok {
		return nil, &UnknownSchemaError{Type: rec.Type, Version: rec.Version, Reason: "type not registered"}
	}
	rec, err := r.migrate(b, rec)
	if err != nil {
		return nil, err
	}
	n, err := b.Import(rec)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", rec.Type, err)
	}
	if err := tx.Create(n); err != nil {
		return nil, err
	}
	if len(rec.Children) > 0 && !node.IsElement(n) {
		return nil, fmt.Errorf("%w: leaf %s has children", ErrInvalidRecord, rec.Type)
	}
	for _, cr := range rec.Children {
		c, err := r.Import(tx, cr)
		if err != nil {
			return nil, err
		}
		if err := tx.Append(n.Key(), c); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// ExportDocument serializes a whole snapshot.
func (r *Registry) ExportDocument(snap *node.Snapshot) (Document, error) {
	root, err := r.Export(snap, snap.RootKey())
	if err != nil {
		return Document{}, err
	}
	return Document{Root: root, LastKey: string(node.LastKey())}, nil
}

// ImportDocument builds a snapshot from doc.
func (r *Registry) ImportDocument(doc Document) (*node.Snapshot, error) {
	if doc.Root.Type != node.TypeRoot {
		return nil, fmt.Errorf("%w: document root has type %q", ErrInvalidRecord, doc.Root.Type)
	}
	if b, ok := r.behavior(node.TypeRoot); ok {
		if _, err := r.migrate(b, doc.Root); err != nil {
			return nil, err
		}
	}
	node.ReserveKeys(node.Key(doc.LastKey))
	tx := node.Fork(node.Empty())
	for _, cr := range doc.Root.Children {
		c, err := r.Import(tx, cr)
		if err != nil {
			tx.Discard()
			return nil, err
		}
		if err := tx.Append(tx.RootKey(), c); err != nil {
			tx.Discard()
			return nil, err
		}
	}
	return tx.Commit()
}

// Marshal exports snap as JSON.
func (r *Registry) Marshal(snap *node.Snapshot) ([]byte, error) {
	doc, err := r.ExportDocument(snap)
	if err != nil {
		return nil, err
	}
	return doc.MarshalJSON()
}

// Unmarshal imports a JSON document.
func (r *Registry) Unmarshal(data []byte) (*node.Snapshot, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return r.ImportDocument(doc)
}
