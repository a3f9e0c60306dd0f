package dispatcher

import (
	"encoding/json"
	"fmt"
)

// Command is a typed command name. The zero value is not usable.
type Command[P any] struct {
	name string
}

// NewCommand declares a command with payload type P.
func NewCommand[P any](name string) Command[P] {
	return Command[P]{name: name}
}

// Name returns the command name.
func (c Command[P]) Name() string { return c.name }

func (c Command[P]) String() string { return c.name }

// decode builds a payload of type P from JSON. Empty input yields the zero
// value.
func (c Command[P]) decode(data []byte) (any, error) {
	var p P
	if len(data) == 0 || string(data) == "null" {
		return p, nil
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, c.name, err)
	}
	return p, nil
}

// wrap adapts a typed handler to the raw handler form.
func (c Command[P]) wrap(fn func(P) (bool, error)) RawHandler {
	return func(payload any) (bool, error) {
		if payload == nil {
			var zero P
			return fn(zero)
		}
		p, ok := payload.(P)
		if !ok {
			return false, fmt.Errorf("%w: %s expects %T, got %T", ErrPayloadType, c.name, *new(P), payload)
		}
		return fn(p)
	}
}

// Register adds a typed handler for cmd and returns an idempotent
// unregister function.
func Register[P any](b *Bus, cmd Command[P], prio Priority, fn func(P) (bool, error)) func() {
	b.setDecoder(cmd.name, cmd.decode)
	return b.RegisterRaw(cmd.name, prio, cmd.wrap(fn))
}

// Dispatch sends payload to the handlers of cmd.
func Dispatch[P any](b *Bus, cmd Command[P], payload P) (bool, error) {
	return b.DispatchAny(cmd.name, payload)
}

// Declare records the JSON decoder of cmd without registering a handler.
func Declare[P any](b *Bus, cmd Command[P]) {
	b.setDecoder(cmd.name, cmd.decode)
}
