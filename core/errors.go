package core

import (
	"errors"
	"fmt"
)

// EncodingError reports a record field whose value cannot be represented
// in the width the wire format gives it.
type EncodingError struct {
	Record  string // e.g., "Channel", "Attachment"
	Field   string // e.g., "topic", "metadata"
	Message string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("cannot encode %s.%s: %s", e.Record, e.Field, e.Message)
}

// NewEncodingError builds an EncodingError for a field of the record kind op.
func NewEncodingError(op Opcode, field, format string, args ...any) *EncodingError {
	return &EncodingError{
		Record:  op.String(),
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsEncodingError checks if an error is an EncodingError.
func IsEncodingError(err error) bool {
	var encodingError *EncodingError
	return errors.As(err, &encodingError)
}

// UnsupportedTypeError is returned when a compression name has no codec.
type UnsupportedTypeError struct {
	Message string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported type value: %s", e.Message)
}

func IsUnsupportedError(err error) bool {
	var unsupportedError *UnsupportedTypeError
	return errors.As(err, &unsupportedError)
}
