package engine

import (
	"errors"
	"fmt"

	"github.com/dshills/folio/internal/engine/history"
)

// Errors returned by engine operations.
var (
	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo = history.ErrNothingToUndo

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo = history.ErrNothingToRedo

	// ErrInvariantViolation is matched by every *InvariantViolationError.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrUpdateInProgress indicates an operation that cannot run inside Update.
	ErrUpdateInProgress = errors.New("update in progress")

	// ErrManualCommit indicates a handler tried to commit the engine's
	// transaction itself.
	ErrManualCommit = errors.New("transaction is committed by the engine")

	// ErrDiscarded indicates a transaction discarded by its handler.
	ErrDiscarded = errors.New("transaction discarded")
)

// StructureInvariant names the built-in tree shape check.
const StructureInvariant = "structure"

// InvariantViolationError reports a commit rejected by an invariant.
type InvariantViolationError struct {
	Invariant string
	Err       error
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant %q violated: %v", e.Invariant, e.Err)
}

func (e *InvariantViolationError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInvariantViolation) match.
func (e *InvariantViolationError) Is(target error) bool {
	return target == ErrInvariantViolation
}
