package subtitle

import (
	"errors"
	"fmt"
)

// ErrDecodeUnsupported is returned by export-only codecs.
var ErrDecodeUnsupported = errors.New("format does not support decoding")

// ParseError reports input that cannot be read as a subtitle at all.
type ParseError struct {
	Format Format
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Format, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError reports an edit that would break ordering or overlap
// rules. Nothing is mutated when it is returned.
type ValidationError struct {
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return "invalid edit: " + e.Reason
	}
	return fmt.Sprintf("invalid edit on line %d: %s", e.Index, e.Reason)
}

func invalid(index int, format string, args ...any) error {
	return &ValidationError{Index: index, Reason: fmt.Sprintf(format, args...)}
}
