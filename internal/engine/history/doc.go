// Package history provides bounded undo/redo stacks for the document engine.
//
// The engine records state rather than commands. Each Entry is a published
// snapshot together with the selection that was current when it was
// published. Committing a transaction pushes the state it replaced:
//
//	h := history.New(100)
//	h.Push(history.Entry{Snapshot: prev, Selection: prevSel, Label: "insert-text"})
//
// Undo and Redo trade the caller's current state for the top of the
// opposite stack:
//
//	restored, err := h.Undo(current)
//	if errors.Is(err, history.ErrNothingToUndo) { ... }
//
// # Grouping
//
// Commits made between BeginGroup and EndGroup form one undo unit. Only the
// state before the first commit of the group is recorded.
//
// # Bounds
//
// The undo stack holds at most MaxEntries entries. The oldest entries are
// evicted first. Pushing a new entry clears the redo stack.
package history
