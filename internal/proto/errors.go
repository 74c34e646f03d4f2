package proto

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated      = errors.New("truncated frame")
	ErrUnknownTag     = errors.New("unknown tag")
	ErrTypeMismatch   = errors.New("field type mismatch")
	ErrLengthMismatch = errors.New("sequence length mismatch")
	ErrTrailingBytes  = errors.New("trailing bytes after message")
	// ErrUnsupported is returned by the encoders for values outside the catalog.
	ErrUnsupported = errors.New("unsupported message")
)

// DecodeError describes why a frame was rejected. Err is one of the sentinel
// errors above, possibly wrapped with details.
type DecodeError struct {
	Tag   string
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Tag == "":
		return fmt.Sprintf("decode: %v", e.Err)
	case e.Field == "":
		return fmt.Sprintf("decode %s: %v", e.Tag, e.Err)
	default:
		return fmt.Sprintf("decode %s.%s: %v", e.Tag, e.Field, e.Err)
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
