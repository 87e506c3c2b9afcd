package bitcoin

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why raw input was rejected.
type ErrorKind string

const (
	WrongLength     ErrorKind = "wrong_length"
	InvalidPrefix   ErrorKind = "invalid_prefix"
	InvalidOutpoint ErrorKind = "invalid_outpoint"
	InvalidOutput   ErrorKind = "invalid_output"
	InvalidWitness  ErrorKind = "invalid_witness"
	OutOfBounds     ErrorKind = "out_of_bounds"
	TrailingBytes   ErrorKind = "trailing_bytes"
)

// ErrInsufficientWork is returned when a header digest does not meet its own target.
var ErrInsufficientWork = errors.New("insufficient proof of work")

// ParseError reports malformed raw input. Offset is where the failing section
// of the input starts.
type ParseError struct {
	Kind   ErrorKind
	Offset int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s at offset %d", e.Kind, e.Offset)
	}
	return fmt.Sprintf("%s at offset %d: %v", e.Kind, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first ParseError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var perr *ParseError
	if errors.As(err, &perr) {
		return perr.Kind, true
	}
	return "", false
}

func parseErr(kind ErrorKind, offset int, err error) error {
	return &ParseError{Kind: kind, Offset: offset, Err: err}
}
