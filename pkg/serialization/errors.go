package serialization

import (
	"errors"
	"fmt"
)

// ErrUnsupportedType is returned for fields whose type has no text mapping.
var ErrUnsupportedType = errors.New("unsupported field type")

// FieldError describes a value that could not be converted.
type FieldError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *FieldError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d, column %s: cannot convert %q: %v", e.Line, e.Column, e.Value, e.Err)
	}
	return fmt.Sprintf("column %s: cannot convert %q: %v", e.Column, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
