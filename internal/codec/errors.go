package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField matches any *MissingFieldError.
	ErrMissingField = errors.New("codec: missing field")
	// ErrDecode matches any *DecodeError.
	ErrDecode = errors.New("codec: decode failed")
	// ErrEmptyName is reported for attributes without a name.
	ErrEmptyName = errors.New("attribute name is empty")
	// ErrInvalidUTF8 is reported for attribute text that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("attribute text is not valid UTF-8")
)

// MissingFieldError reports a property-bag key or transfer-form field that is
// absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("codec: missing field %q", e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// DecodeError reports a field whose content could not be decoded. Absent
// fields surface as a DecodeError wrapping a *MissingFieldError.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("codec: decode %s: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func missing(field string) error {
	return &DecodeError{Field: field, Err: &MissingFieldError{Field: field}}
}

func malformed(field string, format string, args ...any) error {
	return &DecodeError{Field: field, Err: fmt.Errorf(format, args...)}
}
