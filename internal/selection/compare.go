package selection

import (
	"cmp"
	"slices"

	"github.com/dshills/folio/internal/node"
)

// Compare orders two points in document order. It returns -1, 0 or 1.
// Points on missing nodes compare as equal.
func Compare(rd node.Reader, a, b Point) int {
	if a.Key == b.Key {
		return cmp.Compare(a.Offset, b.Offset)
	}
	pa, ok1 := path(rd, a)
	pb, ok2 := path(rd, b)
	if !ok1 || !ok2 {
		return 0
	}
	if c := slices.Compare(pa, pb); c != 0 {
		return c
	}
	// Same path: an element point sits before the child it indexes.
	switch {
	case a.Kind == PointElement && b.Kind != PointElement:
		return -1
	case a.Kind != PointElement && b.Kind == PointElement:
		return 1
	}
	return 0
}

// path returns the child indexes from the root to p. Element points
// append their child index.
func path(rd node.Reader, p Point) ([]int, bool) {
	if !rd.Has(p.Key) {
		return nil, false
	}
	var idx []int
	for k := p.Key; k != rd.RootKey(); {
		i := rd.IndexOf(k)
		if i < 0 {
			return nil, false
		}
		idx = append(idx, i)
		parent := rd.ParentOf(k)
		if parent == nil {
			return nil, false
		}
		k = parent.Key()
	}
	slices.Reverse(idx)
	if p.Kind == PointElement {
		idx = append(idx, p.Offset)
	}
	return idx, true
}
