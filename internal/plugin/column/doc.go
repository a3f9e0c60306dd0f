// Package column adds multi-column layout to a session.
//
// A Container holds a fixed number of Column children, recorded in its
// columnCount attribute. The plugin registers both node types, a
// "column-count" invariant that rejects any commit where a container's
// children disagree with its count, and handlers for:
//
//   - INSERT_COLUMN_COMMAND, which inserts a container at the caret;
//   - MOVE_DOWN_COMMAND, which appends a paragraph after a trailing
//     container so the caret can leave it;
//   - DELETE_CHARACTER_COMMAND, which removes a column (or the container)
//     when backspace is pressed at offset 0 directly inside it.
package column
