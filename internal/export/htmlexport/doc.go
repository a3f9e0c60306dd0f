// Package htmlexport renders a document as an HTML fragment.
//
// The fragment is a <div class="folio"> holding one element per block.
// Text formats map to inline elements, column containers to CSS grid rows
// and images to <img> elements with the caption as alt text.
package htmlexport
