package htmlexport

import (
	"bytes"
	"fmt"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/folio/internal/node"
	"github.com/dshills/folio/internal/plugin/column"
	"github.com/dshills/folio/internal/plugin/image"
)

// formatTags wraps formatted text, outermost first.
var formatTags = []struct {
	f node.Format
	a atom.Atom
}{
	{node.FormatBold, atom.Strong},
	{node.FormatItalic, atom.Em},
	{node.FormatUnderline, atom.U},
	{node.FormatStrikethrough, atom.S},
	{node.FormatSubscript, atom.Sub},
	{node.FormatSuperscript, atom.Sup},
	{node.FormatCode, atom.Code},
}

// Render builds the HTML tree of the document read from rd.
func Render(rd node.Reader) *html.Node {
	root := element(atom.Div, attr("class", "folio"))
	renderChildren(rd, rd.RootKey(), root)
	return root
}

// RenderString renders the document to an HTML string.
func RenderString(rd node.Reader) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, Render(rd)); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func renderChildren(rd node.Reader, parent node.Key, out *html.Node) {
	for _, k := range rd.Children(parent) {
		if h := renderNode(rd, rd.Get(k)); h != nil {
			out.AppendChild(h)
		}
	}
}

func renderNode(rd node.Reader, n node.Node) *html.Node {
	var out *html.Node
	switch v := n.(type) {
	case *node.Text:
		return renderText(v)
	case *image.Image:
		if v.IsLoading() {
			return nil
		}
		return element(atom.Img, attr("src", v.Src()), attr("alt", v.Caption()))
	case *node.Paragraph:
		out = element(atom.P)
	case *node.Heading:
		out = element(atom.Lookup([]byte(v.Tag())))
	case *node.Quote:
		out = element(atom.Blockquote)
	case *column.Container:
		out = element(atom.Div,
			attr("class", "columns"),
			attr("data-columns", strconv.Itoa(v.ColumnCount())),
			attr("style", fmt.Sprintf("display: grid; grid-template-columns: repeat(%d, 1fr)", v.ColumnCount())),
		)
	case *column.Column:
		out = element(atom.Div, attr("class", "column"))
	case node.Element:
		out = element(atom.Div, attr("data-type", n.Type()))
	default:
		return nil
	}
	if b, ok := n.(node.TextBlock); ok && b.Align() != node.AlignNone {
		out.Attr = append(out.Attr, attr("style", "text-align: "+string(b.Align())))
	}
	renderChildren(rd, n.Key(), out)
	return out
}

func renderText(t *node.Text) *html.Node {
	inner := &html.Node{Type: html.TextNode, Data: t.Text()}
	for i := len(formatTags) - 1; i >= 0; i-- {
		if !t.Format().Has(formatTags[i].f) {
			continue
		}
		wrap := element(formatTags[i].a)
		wrap.AppendChild(inner)
		inner = wrap
	}
	return inner
}
