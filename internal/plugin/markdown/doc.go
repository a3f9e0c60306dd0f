// Package markdown converts between Markdown and document nodes and adds
// block shortcuts to typing.
//
// Import understands headings, paragraphs, block quotes, list items, code
// blocks, images and bold, italic, strikethrough and code spans. Export
// writes the same subset. Typing a space after "#" to "######" or ">" at
// the start of a paragraph converts the paragraph to a heading or quote.
package markdown
