package selection

import (
	"github.com/rivo/uniseg"

	"github.com/dshills/folio/internal/node"
)

// Validate repairs sel against rd. A range whose anchor or focus no longer
// resolves is cleared. Offsets are clamped to the node's size and text
// offsets are moved back to a grapheme boundary. Missing keys are dropped
// from a node set and an empty set becomes nil.
func Validate(sel Selection, rd node.Reader) Selection {
	switch s := sel.(type) {
	case Range:
		a, ok := fix(s.Anchor, rd)
		if !ok {
			return nil
		}
		f, ok := fix(s.Focus, rd)
		if !ok {
			return nil
		}
		return Range{Anchor: a, Focus: f}
	case NodeSet:
		var out NodeSet
		for _, k := range s.keys {
			if rd.Has(k) {
				out.keys = append(out.keys, k)
			}
		}
		if len(out.keys) == 0 {
			return nil
		}
		return out
	}
	return nil
}

func fix(p Point, rd node.Reader) (Point, bool) {
	n := rd.Get(p.Key)
	if n == nil {
		return p, false
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	switch v := n.(type) {
	case *node.Text:
		p.Kind = PointText
		p.Offset = GraphemeFloor(v.Text(), p.Offset)
	case node.Element:
		p.Kind = PointElement
		p.Offset = min(p.Offset, v.ChildCount())
	default:
		// Non-text leaves are addressed as a whole.
		p.Kind = PointElement
		p.Offset = 0
	}
	return p, true
}

// GraphemeFloor returns the largest grapheme boundary in s at or below off.
func GraphemeFloor(s string, off int) int {
	if off >= len(s) {
		return len(s)
	}
	if off <= 0 {
		return 0
	}
	pos, state := 0, -1
	rest := s
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if pos+len(cluster) > off {
			return pos
		}
		pos += len(cluster)
	}
	return pos
}

// NextGrapheme returns the boundary after the cluster starting at off.
func NextGrapheme(s string, off int) int {
	if off >= len(s) {
		return len(s)
	}
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(s[off:], -1)
	return off + len(cluster)
}

// PrevGrapheme returns the boundary before off.
func PrevGrapheme(s string, off int) int {
	if off <= 0 {
		return 0
	}
	return GraphemeFloor(s, off-1)
}
