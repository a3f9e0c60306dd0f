// Package selection models what the user is acting on.
//
// A selection is one of:
//
//   - Range: an anchor and a focus Point. When Anchor == Focus the range is
//     a collapsed caret.
//   - NodeSet: an ordered set of node keys, used for whole-node selections
//     such as a selected image.
//
// A nil Selection means nothing is selected.
//
// Points address either a byte offset inside a text node (PointText) or a
// child index inside an element (PointElement). Text offsets always sit on
// grapheme cluster boundaries after Validate.
//
// Selection values are immutable. Methods that change a selection return a
// new value. After every commit the engine runs Validate against the new
// snapshot so that no selection refers to a removed node.
package selection
