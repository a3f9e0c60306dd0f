package schema

import (
	"errors"
	"fmt"
)

// Registry errors.
var (
	// ErrUnknownSchema is matched by every *UnknownSchemaError.
	ErrUnknownSchema = errors.New("unknown schema")

	// ErrDuplicateType indicates a type registered twice.
	ErrDuplicateType = errors.New("node type already registered")

	// ErrInvalidRecord indicates a record that is not well formed.
	ErrInvalidRecord = errors.New("invalid record")
)

// UnknownSchemaError reports a record whose (type, version) pair cannot be
// imported.
type UnknownSchemaError struct {
	Type    string
	Version int
	Reason  string
}

func (e *UnknownSchemaError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unknown schema %s@%d: %s", e.Type, e.Version, e.Reason)
	}
	return fmt.Sprintf("unknown schema %s@%d", e.Type, e.Version)
}

// Is makes errors.Is(err, ErrUnknownSchema) match.
func (e *UnknownSchemaError) Is(target error) bool {
	return target == ErrUnknownSchema
}
