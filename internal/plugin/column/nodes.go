package column

import (
	"fmt"

	"github.com/dshills/folio/internal/node"
	"github.com/dshills/folio/internal/schema"
)

// Type tags. The container tag is part of the stored document format.
const (
	TypeContainer = "conatainer-column"
	TypeColumn    = "column"
)

// DefaultColumns is used when a container is created without a count.
const DefaultColumns = 2

// Container is a row of columns.
type Container struct {
	node.ElementBase
	columnCount int
}

// NewContainer returns an empty container declaring n columns.
func NewContainer(n int) *Container {
	return &Container{ElementBase: node.NewElementBase(""), columnCount: n}
}

// Type implements node.Node.
func (*Container) Type() string { return TypeContainer }

// ColumnCount returns the declared number of columns.
func (c *Container) ColumnCount() int { return c.columnCount }

// SetColumnCount changes the declared number of columns.
func (c *Container) SetColumnCount(n int) error {
	if err := c.CheckWritable(); err != nil {
		return err
	}
	c.columnCount = n
	return nil
}

// Clone implements node.Node.
func (c *Container) Clone() node.Node {
	cp := *c
	return node.Thaw(&cp)
}

// Column holds arbitrary block content inside a container.
type Column struct {
	node.ElementBase
}

// NewColumn returns an empty column.
func NewColumn() *Column {
	return &Column{ElementBase: node.NewElementBase("")}
}

// Type implements node.Node.
func (*Column) Type() string { return TypeColumn }

// Clone implements node.Node.
func (c *Column) Clone() node.Node {
	cp := *c
	return node.Thaw(&cp)
}

// IsContainer reports whether n is a column container.
func IsContainer(n node.Node) bool {
	_, ok := n.(*Container)
	return ok
}

// IsColumn reports whether n is a column.
func IsColumn(n node.Node) bool {
	_, ok := n.(*Column)
	return ok
}

func behaviors() map[string]schema.Behavior {
	return map[string]schema.Behavior{
		TypeContainer: {
			Version: 1,
			Create: func(p schema.Props) (node.Node, error) {
				n := p.Int("columnCount", DefaultColumns)
				if n < 1 {
					return nil, fmt.Errorf("columnCount must be positive, got %d", n)
				}
				return NewContainer(n), nil
			},
			Import: func(rec schema.Record) (node.Node, error) {
				n, ok := rec.Int("columnCount")
				if !ok {
					n = 1
				}
				if n < 1 {
					return nil, fmt.Errorf("columnCount must be positive, got %d", n)
				}
				return NewContainer(n), nil
			},
			Export: func(n node.Node) (map[string]any, error) {
				return map[string]any{"columnCount": n.(*Container).ColumnCount()}, nil
			},
		},
		TypeColumn: {
			Version: 1,
			Create:  func(schema.Props) (node.Node, error) { return NewColumn(), nil },
			Import:  func(schema.Record) (node.Node, error) { return NewColumn(), nil },
			Export:  func(node.Node) (map[string]any, error) { return nil, nil },
		},
	}
}
