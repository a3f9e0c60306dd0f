package editor

import (
	"slices"

	"github.com/dshills/folio/internal/node"
	"github.com/dshills/folio/internal/selection"
)

// IsBlock reports whether n is a text block.
func IsBlock(n node.Node) bool {
	_, ok := n.(node.TextBlock)
	return ok
}

// BlockOf returns the text block that is key or contains key, or nil.
func BlockOf(rd node.Reader, key node.Key) node.TextBlock {
	for n := rd.Get(key); n != nil; n = rd.Get(n.Parent()) {
		if b, ok := n.(node.TextBlock); ok {
			return b
		}
		if n.Parent() == "" {
			break
		}
	}
	return nil
}

// Blocks returns the keys of every text block in document order.
func Blocks(rd node.Reader) []node.Key {
	var keys []node.Key
	rd.Walk(func(n node.Node, _ int) bool {
		if IsBlock(n) {
			keys = append(keys, n.Key())
		}
		return true
	})
	return keys
}

// NextBlock returns the text block after key in document order, or nil.
func NextBlock(rd node.Reader, key node.Key) node.TextBlock {
	blocks := Blocks(rd)
	if i := slices.Index(blocks, key); i >= 0 && i+1 < len(blocks) {
		return rd.Get(blocks[i+1]).(node.TextBlock)
	}
	return nil
}

// PrevBlock returns the text block before key in document order, or nil.
func PrevBlock(rd node.Reader, key node.Key) node.TextBlock {
	blocks := Blocks(rd)
	if i := slices.Index(blocks, key); i > 0 {
		return rd.Get(blocks[i-1]).(node.TextBlock)
	}
	return nil
}

// IsEmptyBlock reports whether key has no children other than empty text.
func IsEmptyBlock(rd node.Reader, key node.Key) bool {
	for _, k := range rd.Children(key) {
		t, ok := rd.Get(k).(*node.Text)
		if !ok || t.Text() != "" {
			return false
		}
	}
	return true
}

// StartPoint returns the first caret position inside key.
func StartPoint(rd node.Reader, key node.Key) selection.Point {
	n := rd.Get(key)
	switch v := n.(type) {
	case *node.Text:
		return selection.TextPoint(key, 0)
	case node.Element:
		first := rd.FirstChild(key)
		switch {
		case first == nil:
			return selection.ElementPoint(key, 0)
		case node.IsElement(first):
			return StartPoint(rd, first.Key())
		case isText(first):
			return selection.TextPoint(first.Key(), 0)
		}
		return selection.ElementPoint(v.Key(), 0)
	case nil:
		return selection.Point{}
	}
	return selection.ElementPoint(n.Parent(), rd.IndexOf(key))
}

// EndPoint returns the last caret position inside key.
func EndPoint(rd node.Reader, key node.Key) selection.Point {
	n := rd.Get(key)
	switch v := n.(type) {
	case *node.Text:
		return selection.TextPoint(key, len(v.Text()))
	case node.Element:
		last := rd.LastChild(key)
		switch {
		case last == nil:
			return selection.ElementPoint(key, 0)
		case node.IsElement(last):
			return EndPoint(rd, last.Key())
		case isText(last):
			return selection.TextPoint(last.Key(), len(last.(*node.Text).Text()))
		}
		return selection.ElementPoint(key, v.ChildCount())
	case nil:
		return selection.Point{}
	}
	return selection.ElementPoint(n.Parent(), rd.IndexOf(key)+1)
}

// AtBlockStart reports whether p is the first caret position of its block.
func AtBlockStart(rd node.Reader, p selection.Point) bool {
	b := BlockOf(rd, p.Key)
	if b == nil {
		return false
	}
	if p.Key == b.Key() {
		return p.Offset == 0
	}
	if p.Offset != 0 {
		return false
	}
	kids := rd.Children(b.Key())
	return len(kids) > 0 && kids[0] == p.Key
}

// AtBlockEnd reports whether p is the last caret position of its block.
func AtBlockEnd(rd node.Reader, p selection.Point) bool {
	b := BlockOf(rd, p.Key)
	if b == nil {
		return false
	}
	kids := rd.Children(b.Key())
	if p.Key == b.Key() {
		return p.Offset >= len(kids)
	}
	if len(kids) == 0 || kids[len(kids)-1] != p.Key {
		return false
	}
	t, ok := rd.Get(p.Key).(*node.Text)
	return ok && p.Offset >= len(t.Text())
}

// SelectedBlocks returns the text blocks touched by sel in document order.
func SelectedBlocks(rd node.Reader, sel selection.Selection) []node.Key {
	switch s := sel.(type) {
	case selection.Range:
		start, end := s.Ordered(rd)
		a, b := BlockOf(rd, start.Key), BlockOf(rd, end.Key)
		if a == nil || b == nil {
			return nil
		}
		blocks := Blocks(rd)
		i, j := slices.Index(blocks, a.Key()), slices.Index(blocks, b.Key())
		if i < 0 || j < i {
			return nil
		}
		return blocks[i : j+1]
	case selection.NodeSet:
		var out []node.Key
		for _, k := range s.Keys() {
			if b := BlockOf(rd, k); b != nil && !slices.Contains(out, b.Key()) {
				out = append(out, b.Key())
			}
		}
		return out
	}
	return nil
}

func isText(n node.Node) bool {
	_, ok := n.(*node.Text)
	return ok
}
