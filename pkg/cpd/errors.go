package cpd

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned for malformed token streams or configuration.
var ErrInvalidInput = errors.New("invalid input")

// InputError describes why an input was rejected. It wraps ErrInvalidInput.
type InputError struct {
	File   string
	Token  int // index into the raw stream, -1 when not token-specific
	Reason string
}

func (e *InputError) Error() string {
	switch {
	case e.File != "" && e.Token >= 0:
		return fmt.Sprintf("%s: token %d: %s", e.File, e.Token, e.Reason)
	case e.File != "":
		return fmt.Sprintf("%s: %s", e.File, e.Reason)
	default:
		return e.Reason
	}
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(reason string) error {
	return &InputError{Token: -1, Reason: reason}
}
