package node

import (
	"fmt"
	"strings"
)

// Format is a bitmask of inline text formats.
type Format uint32

// Text formats.
const (
	FormatBold Format = 1 << iota
	FormatItalic
	FormatStrikethrough
	FormatUnderline
	FormatCode
	FormatSubscript
	FormatSuperscript
)

var formatNames = []struct {
	f    Format
	name string
}{
	{FormatBold, "bold"},
	{FormatItalic, "italic"},
	{FormatStrikethrough, "strikethrough"},
	{FormatUnderline, "underline"},
	{FormatCode, "code"},
	{FormatSubscript, "subscript"},
	{FormatSuperscript, "superscript"},
}

// ParseFormat returns the format bit for a name such as "bold".
func ParseFormat(name string) (Format, error) {
	for _, fn := range formatNames {
		if fn.name == strings.ToLower(name) {
			return fn.f, nil
		}
	}
	return 0, fmt.Errorf("unknown text format %q", name)
}

// Has reports whether every bit of other is set.
func (f Format) Has(other Format) bool {
	return f&other == other
}

// Toggle flips the given bits. Subscript and superscript exclude each other.
func (f Format) Toggle(other Format) Format {
	f ^= other
	if other == FormatSubscript && f.Has(FormatSubscript) {
		f &^= FormatSuperscript
	}
	if other == FormatSuperscript && f.Has(FormatSuperscript) {
		f &^= FormatSubscript
	}
	return f
}

// String returns the set format names joined by "|".
func (f Format) String() string {
	var parts []string
	for _, fn := range formatNames {
		if f.Has(fn.f) {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}
