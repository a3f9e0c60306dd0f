package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/node"
	"github.com/dshills/folio/internal/plugin/column"
	"github.com/dshills/folio/internal/plugin/image"
	"github.com/dshills/folio/internal/selection"
)

var (
	headingStyle = color.New(color.Bold, color.Underline)
	quoteStyle   = color.New(color.Faint, color.Italic)
	imageStyle   = color.New(color.FgCyan)
	layoutStyle  = color.New(color.FgHiYellow, color.Faint)
)

// printOutline writes a terminal rendering of the session's document. The
// block holding the caret is marked with ">".
func printOutline(w io.Writer, sess *editor.Session) {
	snap := sess.Snapshot()
	var caret node.Key
	if r, ok := selection.AsRange(sess.Selection()); ok {
		if b := editor.BlockOf(snap, r.Focus.Key); b != nil {
			caret = b.Key()
		}
	}
	for _, k := range snap.Children(snap.RootKey()) {
		printNode(w, snap, snap.Get(k), 0, caret)
	}
}

func printNode(w io.Writer, rd node.Reader, n node.Node, depth int, caret node.Key) {
	indent := strings.Repeat("  ", depth)
	marker := " "
	if n.Key() == caret {
		marker = ">"
	}
	switch b := n.(type) {
	case *node.Heading:
		fmt.Fprintf(w, "%s%s%s\n", marker, indent, headingStyle.Sprint(rd.TextContent(b.Key())))
	case *node.Quote:
		fmt.Fprintf(w, "%s%s%s\n", marker, indent, quoteStyle.Sprint("│ "+rd.TextContent(b.Key())))
	case node.TextBlock:
		fmt.Fprintf(w, "%s%s%s\n", marker, indent, inline(rd, b.Key()))
	case *column.Container:
		fmt.Fprintf(w, "%s%s%s\n", marker, indent, layoutStyle.Sprintf("[%d columns]", b.ColumnCount()))
		for _, k := range rd.Children(b.Key()) {
			printNode(w, rd, rd.Get(k), depth+1, caret)
		}
	case *column.Column:
		fmt.Fprintf(w, "%s%s%s\n", marker, indent, layoutStyle.Sprint("[column]"))
		for _, k := range rd.Children(b.Key()) {
			printNode(w, rd, rd.Get(k), depth+1, caret)
		}
	case *image.Image:
		fmt.Fprintf(w, "%s%s%s\n", marker, indent, imageDescription(b))
	case node.Element:
		for _, k := range rd.Children(b.Key()) {
			printNode(w, rd, rd.Get(k), depth, caret)
		}
	}
}

// inline renders the children of a text block with terminal styles for
// their formats.
func inline(rd node.Reader, block node.Key) string {
	var b strings.Builder
	for _, k := range rd.Children(block) {
		switch c := rd.Get(k).(type) {
		case *node.Text:
			b.WriteString(styleFor(c.Format()).Sprint(c.Text()))
		case *image.Image:
			b.WriteString(imageDescription(c))
		}
	}
	return b.String()
}

func styleFor(f node.Format) *color.Color {
	c := color.New()
	if f.Has(node.FormatBold) {
		c.Add(color.Bold)
	}
	if f.Has(node.FormatItalic) {
		c.Add(color.Italic)
	}
	if f.Has(node.FormatUnderline) {
		c.Add(color.Underline)
	}
	if f.Has(node.FormatStrikethrough) {
		c.Add(color.CrossedOut)
	}
	if f.Has(node.FormatCode) {
		c.Add(color.FgMagenta)
	}
	return c
}

func imageDescription(img *image.Image) string {
	if img.IsLoading() {
		return imageStyle.Sprint("[image uploading]")
	}
	label := img.Caption()
	if label == "" {
		label = "image"
	}
	return imageStyle.Sprintf("[%s] %s", label, img.Src())
}
