package node

import (
	"fmt"
	"strings"
)

// Core type tags.
const (
	TypeRoot      = "root"
	TypeParagraph = "paragraph"
	TypeHeading   = "heading"
	TypeQuote     = "quote"
	TypeText      = "text"
)

// Align is the horizontal alignment of a text block.
type Align string

// Alignments.
const (
	AlignNone    Align = ""
	AlignLeft    Align = "left"
	AlignCenter  Align = "center"
	AlignRight   Align = "right"
	AlignJustify Align = "justify"
)

// ParseAlign validates an alignment name.
func ParseAlign(s string) (Align, error) {
	switch a := Align(strings.ToLower(s)); a {
	case AlignNone, AlignLeft, AlignCenter, AlignRight, AlignJustify:
		return a, nil
	}
	return AlignNone, fmt.Errorf("unknown alignment %q", s)
}

// Root is the single top-level element of a document.
type Root struct {
	ElementBase
}

// NewRoot creates a root element.
func NewRoot() *Root {
	return &Root{ElementBase: NewElementBase("")}
}

// Type implements Node.
func (*Root) Type() string { return TypeRoot }

// Clone implements Node.
func (n *Root) Clone() Node {
	c := *n
	return Thaw(&c)
}

// TextBlock is an element holding inline content: text runs and inline
// leaves such as images.
type TextBlock interface {
	Element
	Align() Align
	SetAlign(a Align) error
	textBlock() *BlockBase
}

// BlockBase is embedded by text blocks.
type BlockBase struct {
	ElementBase
	align Align
}

// NewBlockBase returns a BlockBase with the given key.
func NewBlockBase(key Key) BlockBase {
	return BlockBase{ElementBase: NewElementBase(key)}
}

// Align returns the block alignment.
func (b *BlockBase) Align() Align { return b.align }

// SetAlign changes the block alignment.
func (b *BlockBase) SetAlign(a Align) error {
	if err := b.CheckWritable(); err != nil {
		return err
	}
	b.align = a
	return nil
}

func (b *BlockBase) textBlock() *BlockBase { return b }

// Paragraph is the default text block.
type Paragraph struct {
	BlockBase
}

// NewParagraph creates an empty paragraph.
func NewParagraph() *Paragraph {
	return &Paragraph{BlockBase: NewBlockBase("")}
}

// Type implements Node.
func (*Paragraph) Type() string { return TypeParagraph }

// Clone implements Node.
func (n *Paragraph) Clone() Node {
	c := *n
	return Thaw(&c)
}

// Heading is a text block with a level tag h1..h6.
type Heading struct {
	BlockBase
	tag string
}

// NewHeading creates an empty heading. Invalid tags fall back to h1.
func NewHeading(tag string) *Heading {
	if !ValidHeadingTag(tag) {
		tag = "h1"
	}
	return &Heading{BlockBase: NewBlockBase(""), tag: tag}
}

// ValidHeadingTag reports whether tag is h1..h6.
func ValidHeadingTag(tag string) bool {
	return len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6'
}

// Type implements Node.
func (*Heading) Type() string { return TypeHeading }

// Tag returns the heading level tag.
func (n *Heading) Tag() string { return n.tag }

// Level returns the heading level 1..6.
func (n *Heading) Level() int { return int(n.tag[1] - '0') }

// SetTag changes the heading level.
func (n *Heading) SetTag(tag string) error {
	if err := n.CheckWritable(); err != nil {
		return err
	}
	if !ValidHeadingTag(tag) {
		return fmt.Errorf("invalid heading tag %q", tag)
	}
	n.tag = tag
	return nil
}

// Clone implements Node.
func (n *Heading) Clone() Node {
	c := *n
	return Thaw(&c)
}

// Quote is a block quotation.
type Quote struct {
	BlockBase
}

// NewQuote creates an empty quote.
func NewQuote() *Quote {
	return &Quote{BlockBase: NewBlockBase("")}
}

// Type implements Node.
func (*Quote) Type() string { return TypeQuote }

// Clone implements Node.
func (n *Quote) Clone() Node {
	c := *n
	return Thaw(&c)
}

// Text is a run of uniformly formatted text.
type Text struct {
	LeafBase
	text   string
	format Format
}

// NewText creates a text node.
func NewText(text string) *Text {
	return &Text{LeafBase: NewLeafBase(""), text: text}
}

// Type implements Node.
func (*Text) Type() string { return TypeText }

// Text returns the content.
func (n *Text) Text() string { return n.text }

// Format returns the format bits.
func (n *Text) Format() Format { return n.format }

// SetText replaces the content.
func (n *Text) SetText(s string) error {
	if err := n.CheckWritable(); err != nil {
		return err
	}
	n.text = s
	return nil
}

// SetFormat replaces the format bits.
func (n *Text) SetFormat(f Format) error {
	if err := n.CheckWritable(); err != nil {
		return err
	}
	n.format = f
	return nil
}

// Clone implements Node.
func (n *Text) Clone() Node {
	c := *n
	return Thaw(&c)
}
