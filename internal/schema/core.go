package schema

import (
	"fmt"

	"github.com/dshills/folio/internal/node"
)

func coreBehaviors() map[string]Behavior {
	return map[string]Behavior{
		node.TypeRoot: {
			Version: 1,
			Create:  func(Props) (node.Node, error) { return node.NewRoot(), nil },
			Import: func(Record) (node.Node, error) {
				return nil, fmt.Errorf("root record is only valid as the document root")
			},
			Export: func(node.Node) (map[string]any, error) { return nil, nil },
		},
		node.TypeParagraph: {
			Version: 1,
			Create: func(p Props) (node.Node, error) {
				n := node.NewParagraph()
				return n, setAlign(n, p.String("align", ""))
			},
			Import: func(rec Record) (node.Node, error) {
				n := node.NewParagraph()
				a, _ := rec.String("align")
				return n, setAlign(n, a)
			},
			Export: exportBlock,
		},
		node.TypeHeading: {
			Version: 1,
			Create: func(p Props) (node.Node, error) {
				tag := p.String("tag", "h1")
				if !node.ValidHeadingTag(tag) {
					return nil, fmt.Errorf("invalid heading tag %q", tag)
				}
				n := node.NewHeading(tag)
				return n, setAlign(n, p.String("align", ""))
			},
			Import: func(rec Record) (node.Node, error) {
				tag, _ := rec.String("tag")
				if !node.ValidHeadingTag(tag) {
					return nil, fmt.Errorf("invalid heading tag %q", tag)
				}
				n := node.NewHeading(tag)
				a, _ := rec.String("align")
				return n, setAlign(n, a)
			},
			Export: func(n node.Node) (map[string]any, error) {
				attrs, _ := exportBlock(n)
				if attrs == nil {
					attrs = make(map[string]any)
				}
				attrs["tag"] = n.(*node.Heading).Tag()
				return attrs, nil
			},
		},
		node.TypeQuote: {
			Version: 1,
			Create: func(p Props) (node.Node, error) {
				n := node.NewQuote()
				return n, setAlign(n, p.String("align", ""))
			},
			Import: func(rec Record) (node.Node, error) {
				n := node.NewQuote()
				a, _ := rec.String("align")
				return n, setAlign(n, a)
			},
			Export: exportBlock,
		},
		node.TypeText: {
			Version: 1,
			Create: func(p Props) (node.Node, error) {
				n := node.NewText(p.String("text", ""))
				return n, n.SetFormat(node.Format(p.Int("format", 0)))
			},
			Import: func(rec Record) (node.Node, error) {
				s, _ := rec.String("text")
				f, _ := rec.Int("format")
				n := node.NewText(s)
				return n, n.SetFormat(node.Format(f))
			},
			Export: func(n node.Node) (map[string]any, error) {
				t := n.(*node.Text)
				return map[string]any{"text": t.Text(), "format": int(t.Format())}, nil
			},
		},
	}
}

func setAlign(b node.TextBlock, s string) error {
	a, err := node.ParseAlign(s)
	if err != nil {
		return err
	}
	return b.SetAlign(a)
}

func exportBlock(n node.Node) (map[string]any, error) {
	b := n.(node.TextBlock)
	if b.Align() == node.AlignNone {
		return nil, nil
	}
	return map[string]any{"align": string(b.Align())}, nil
}
