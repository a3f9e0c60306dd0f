package dispatcher

import (
	"errors"
	"fmt"
)

// Dispatcher errors.
var (
	// ErrPanic indicates the handler panicked.
	ErrPanic = errors.New("dispatcher: handler panic")

	// ErrPayloadType indicates a payload of the wrong type for a command.
	ErrPayloadType = errors.New("dispatcher: wrong payload type")

	// ErrInvalidPayload indicates a JSON payload that could not be decoded.
	ErrInvalidPayload = errors.New("dispatcher: invalid payload")

	// ErrDispatchCancelled indicates the dispatch was cancelled by a hook.
	ErrDispatchCancelled = errors.New("dispatcher: dispatch cancelled by hook")

	// ErrMaxDepth indicates nested dispatches exceeded Config.MaxDepth.
	ErrMaxDepth = errors.New("dispatcher: maximum dispatch depth exceeded")

	// ErrInvalidCommand indicates an empty command name.
	ErrInvalidCommand = errors.New("dispatcher: invalid command")
)

// HandlerError wraps an error returned or raised by a handler.
type HandlerError struct {
	Command  string
	Priority Priority
	Err      error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("dispatcher: %s handler (%s): %v", e.Command, e.Priority, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }
