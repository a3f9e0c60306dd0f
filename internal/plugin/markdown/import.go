package markdown

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/node"
	"github.com/dshills/folio/internal/schema"
)

// imageType is the registry tag used for Markdown images.
const imageType = "Image"

var md = goldmark.New(goldmark.WithExtensions(extension.Strikethrough))

// Parse converts src into detached blocks created in tx. Images become
// registry-created "Image" nodes when that type is registered and their
// alt text otherwise.
func Parse(tx *engine.Tx, src []byte) ([]node.Node, error) {
	doc := md.Parser().Parse(text.NewReader(src))
	b := &builder{tx: tx, reg: tx.Registry(), src: src}
	if err := b.blocks(doc); err != nil {
		return nil, err
	}
	return b.out, nil
}

// Import appends the blocks of src to parent.
func Import(tx *engine.Tx, parent node.Key, src []byte) error {
	blocks, err := Parse(tx, src)
	if err != nil {
		return err
	}
	for _, n := range blocks {
		if err := tx.Append(parent, n); err != nil {
			return err
		}
	}
	return nil
}

type builder struct {
	tx  *engine.Tx
	reg *schema.Registry
	src []byte
	out []node.Node
}

func (b *builder) blocks(parent ast.Node) error {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if err := b.block(n, false); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) block(n ast.Node, quoted bool) error {
	switch v := n.(type) {
	case *ast.Heading:
		return b.textBlock(node.NewHeading(headingTag(v.Level)), v)
	case *ast.Paragraph, *ast.TextBlock:
		if quoted {
			return b.textBlock(node.NewQuote(), v)
		}
		return b.textBlock(node.NewParagraph(), v)
	case *ast.Blockquote:
		for c := v.FirstChild(); c != nil; c = c.NextSibling() {
			if err := b.block(c, true); err != nil {
				return err
			}
		}
	case *ast.List, *ast.ListItem:
		for c := v.FirstChild(); c != nil; c = c.NextSibling() {
			if err := b.block(c, quoted); err != nil {
				return err
			}
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return b.codeBlock(v)
	}
	return nil
}

func headingTag(level int) string {
	level = min(max(level, 1), 6)
	return "h" + string(rune('0'+level))
}

func (b *builder) textBlock(blk node.TextBlock, n ast.Node) error {
	if err := b.tx.Create(blk); err != nil {
		return err
	}
	if err := b.inlines(blk.Key(), n, 0); err != nil {
		return err
	}
	b.out = append(b.out, blk)
	return nil
}

func (b *builder) codeBlock(n ast.Node) error {
	p := node.NewParagraph()
	if err := b.tx.Create(p); err != nil {
		return err
	}
	var code []byte
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code = append(code, seg.Value(b.src)...)
	}
	if s := trimNewline(string(code)); s != "" {
		if err := b.text(p.Key(), s, node.FormatCode); err != nil {
			return err
		}
	}
	b.out = append(b.out, p)
	return nil
}

func trimNewline(s string) string {
	for len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	return s
}

func (b *builder) inlines(block node.Key, parent ast.Node, f node.Format) error {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if err := b.inline(block, n, f); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) inline(block node.Key, n ast.Node, f node.Format) error {
	switch v := n.(type) {
	case *ast.Text:
		s := string(v.Value(b.src))
		switch {
		case v.HardLineBreak():
			s += "\n"
		case v.SoftLineBreak():
			s += " "
		}
		return b.text(block, s, f)
	case *ast.String:
		return b.text(block, string(v.Value), f)
	case *ast.Emphasis:
		if v.Level >= 2 {
			return b.inlines(block, v, f|node.FormatBold)
		}
		return b.inlines(block, v, f|node.FormatItalic)
	case *east.Strikethrough:
		return b.inlines(block, v, f|node.FormatStrikethrough)
	case *ast.CodeSpan:
		return b.inlines(block, v, f|node.FormatCode)
	case *ast.AutoLink:
		return b.text(block, string(v.URL(b.src)), f)
	case *ast.Image:
		return b.image(block, string(v.Destination), plain(v, b.src), f)
	default:
		return b.inlines(block, v, f)
	}
}

// plain returns the text below n without formatting.
func plain(n ast.Node, src []byte) string {
	var out []byte
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			out = append(out, v.Value(src)...)
		case *ast.String:
			out = append(out, v.Value...)
		default:
			out = append(out, plain(c, src)...)
		}
	}
	return string(out)
}

func (b *builder) image(block node.Key, src, alt string, f node.Format) error {
	if src == "" || !b.reg.Has(imageType) {
		return b.text(block, alt, f)
	}
	img, err := b.reg.Create(imageType, schema.Props{"src": src, "caption": alt})
	if err != nil {
		return err
	}
	return b.tx.Append(block, img)
}

// text appends s to block, extending the last text node when it has the
// same format.
func (b *builder) text(block node.Key, s string, f node.Format) error {
	if s == "" {
		return nil
	}
	if last, ok := b.tx.LastChild(block).(*node.Text); ok && last.Format() == f {
		w, err := b.tx.Writable(last.Key())
		if err != nil {
			return err
		}
		return w.(*node.Text).SetText(last.Text() + s)
	}
	t := node.NewText(s)
	if err := t.SetFormat(f); err != nil {
		return err
	}
	return b.tx.Append(block, t)
}
