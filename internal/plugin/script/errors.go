package script

import (
	"errors"
	"fmt"
)

// Errors for script execution.
var (
	// ErrStateClosed is returned when running code on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrTimeout is returned when a script runs past its time limit.
	ErrTimeout = errors.New("lua execution timeout")

	// ErrPanic is returned when the interpreter panics.
	ErrPanic = errors.New("lua panic")
)

// ScriptError is returned by a Lua command handler that raised an error.
type ScriptError struct {
	Command string
	Err     error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script handler for %s: %v", e.Command, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }
