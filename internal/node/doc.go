// Package node provides the document tree for Folio.
//
// A document is a tree of typed nodes. Every node has a process-unique Key
// that survives cloning, a type tag, and a weak reference to its parent.
// Structural nodes (Element) own an ordered list of child keys; leaves (Leaf)
// carry payload such as text or an image address.
//
// # Snapshots and Transactions
//
// Readers only ever see a Snapshot, an immutable tree value. All mutation
// happens in a Tx forked from a snapshot:
//
//	tx := node.Fork(snap)
//	p := node.NewParagraph()
//	if err := tx.Append(tx.RootKey(), p); err != nil {
//	    tx.Discard()
//	    return err
//	}
//	next, err := tx.Commit()
//
// A node read from a snapshot is frozen; its setters return
// ErrIllegalMutation. Tx.Writable clones the node (same key) into the working
// copy and returns the writable clone, so the source snapshot never changes.
//
// # Reparenting
//
// Inserting a node that already has a parent fails with ErrReparent. Moving a
// node is done by detaching it first:
//
//	n, _ := tx.Detach(key)
//	_ = tx.Append(target, n)
//
// Detached nodes that are not re-attached before commit are dropped together
// with their subtree.
package node
