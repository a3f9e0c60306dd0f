package markdown

import (
	"strings"

	"github.com/dshills/folio/internal/node"
)

// imageLike is implemented by image leaves.
type imageLike interface {
	Src() string
	Caption() string
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`_`, `\_`,
	`~`, `\~`,
	"`", "\\`",
	`[`, `\[`,
	`]`, `\]`,
)

// Export writes the document read from rd as Markdown. Blocks are
// separated by a blank line. Elements that are not text blocks, such as
// column layouts, contribute their blocks in document order.
func Export(rd node.Reader) string {
	var blocks []string
	exportChildren(rd, rd.RootKey(), &blocks)
	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

func exportChildren(rd node.Reader, parent node.Key, out *[]string) {
	for _, k := range rd.Children(parent) {
		switch n := rd.Get(k).(type) {
		case *node.Heading:
			*out = append(*out, strings.Repeat("#", n.Level())+" "+inline(rd, k))
		case *node.Quote:
			body := inline(rd, k)
			*out = append(*out, "> "+strings.ReplaceAll(body, "\n", "\n> "))
		case *node.Paragraph:
			*out = append(*out, escapeLineStart(inline(rd, k)))
		case node.Element:
			exportChildren(rd, k, out)
		case imageLike:
			*out = append(*out, image(n))
		}
	}
}

// escapeLineStart keeps a paragraph from reading back as a heading or quote.
func escapeLineStart(s string) string {
	if strings.HasPrefix(s, "#") || strings.HasPrefix(s, ">") {
		return `\` + s
	}
	return s
}

func image(img imageLike) string {
	return "![" + escaper.Replace(img.Caption()) + "](" + img.Src() + ")"
}

func inline(rd node.Reader, block node.Key) string {
	var b strings.Builder
	for _, k := range rd.Children(block) {
		switch n := rd.Get(k).(type) {
		case *node.Text:
			b.WriteString(formatted(n.Text(), n.Format()))
		case imageLike:
			b.WriteString(image(n))
		}
	}
	return b.String()
}

// formatted wraps s in the markers for f. Surrounding spaces stay outside
// the markers so that the emphasis still parses.
func formatted(s string, f node.Format) string {
	if f.Has(node.FormatCode) {
		return "`" + s + "`"
	}
	body := strings.ReplaceAll(escaper.Replace(s), "\n", "\\\n")
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return body
	}
	lead := body[:strings.Index(body, trimmed)]
	trail := body[len(lead)+len(trimmed):]
	opening, closing := "", ""
	for _, m := range []struct {
		f      node.Format
		marker string
	}{
		{node.FormatBold, "**"},
		{node.FormatItalic, "_"},
		{node.FormatStrikethrough, "~~"},
	} {
		if f.Has(m.f) {
			opening += m.marker
			closing = m.marker + closing
		}
	}
	return lead + opening + trimmed + closing + trail
}
