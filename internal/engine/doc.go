// Package engine owns the current document snapshot and is the only way to
// change it.
//
// # Transactions
//
// Update runs a function against a working copy forked from the current
// snapshot and commits it:
//
//	err := eng.Update(func(tx *engine.Tx) error {
//		p := node.NewParagraph()
//		if err := tx.Append(tx.RootKey(), p); err != nil {
//			return err
//		}
//		tx.SetSelection(selection.Caret(selection.ElementPoint(p.Key(), 0)))
//		return nil
//	})
//
// A commit is all or nothing. If fn returns an error or panics, the working
// copy is discarded and Snapshot returns the same pointer it returned before
// the call. Update calls made while another Update on the same engine is
// running execute inline against the outer transaction.
//
// # Commit sequence
//
//  1. The node transaction is committed, freezing dirty nodes and checking
//     tree structure.
//  2. Registered invariants run against the new snapshot.
//  3. The selection is validated against the new snapshot.
//  4. The replaced state is pushed onto undo history unless tags say
//     otherwise.
//  5. Listeners are notified once.
//
// A failure in steps 1 or 2 returns an *InvariantViolationError and keeps the
// previous snapshot.
//
// # Threading
//
// Update, Undo, Redo and SetSnapshot must be called from a single goroutine
// at a time. Snapshot and Selection may be read from any goroutine.
package engine
