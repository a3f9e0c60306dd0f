package node

import "errors"

// Mutation errors.
var (
	// ErrIllegalMutation indicates a mutation outside an open transaction,
	// or a setter called on a frozen node.
	ErrIllegalMutation = errors.New("illegal mutation outside transaction")

	// ErrReparent indicates an insert of a node that still has a parent.
	ErrReparent = errors.New("node already has a parent")

	// ErrRootImmutable indicates an attempt to remove, detach or move the root.
	ErrRootImmutable = errors.New("root node cannot be moved or removed")

	// ErrCycle indicates an insert that would make a node its own ancestor.
	ErrCycle = errors.New("insert would create a cycle")

	// ErrDuplicateKey indicates a new node whose key is already in the tree.
	ErrDuplicateKey = errors.New("duplicate node key")
)

// Lookup errors.
var (
	// ErrNodeNotFound indicates a key that does not resolve in the tree.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNotElement indicates a structural operation on a leaf node.
	ErrNotElement = errors.New("node cannot have children")
)

// ErrCorruptTree indicates the structural check failed at commit.
var ErrCorruptTree = errors.New("corrupt tree")
