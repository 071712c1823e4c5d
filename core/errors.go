package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the three failure categories surfaced to callers.
// Match them with errors.Is.
var (
	// ErrValidation indicates caller-supplied input was rejected
	// (empty text, dimension mismatch, invalid k or budget).
	ErrValidation = errors.New("validation failed")

	// ErrConfiguration indicates a required collaborator or setting is missing.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrNotFound indicates an operation referenced an unknown memory id.
	ErrNotFound = errors.New("not found")
)

// Error kinds categorize errors by their type.
const (
	KindValidation    = "validation"
	KindConfiguration = "configuration"
	KindNotFound      = "not_found"
)

// Error wraps an underlying error with the operation that failed and the
// category of failure.
//
// Error supports unwrapping, so errors.Is(err, ErrNotFound) holds for any
// Error of kind KindNotFound regardless of the detail message.
type Error struct {
	// Op is the operation that failed (e.g. "Store.Add", "Cortex.Remember").
	Op string

	// Kind categorizes the error (KindValidation, KindConfiguration, KindNotFound).
	Kind string

	// Err is the detail error.
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind, or an
// *Error with the same kind (and the same op when target sets one).
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrConfiguration:
		return e.Kind == KindConfiguration
	case ErrNotFound:
		return e.Kind == KindNotFound
	}

	if t, ok := target.(*Error); ok && t.Kind != "" && t.Kind == e.Kind {
		return t.Op == "" || t.Op == e.Op
	}
	return false
}

// Validationf returns a KindValidation error for op.
func Validationf(op, format string, args ...any) *Error {
	return &Error{Op: op, Kind: KindValidation, Err: fmt.Errorf(format, args...)}
}

// Configurationf returns a KindConfiguration error for op.
func Configurationf(op, format string, args ...any) *Error {
	return &Error{Op: op, Kind: KindConfiguration, Err: fmt.Errorf(format, args...)}
}

// NotFound returns a KindNotFound error for an unknown memory id.
func NotFound(op string, id uint64) *Error {
	return &Error{Op: op, Kind: KindNotFound, Err: fmt.Errorf("memory %d", id)}
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return errors.Is(err, ErrConfiguration) }

// IsNotFound reports whether err references an unknown memory.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// KindOf returns the error kind of err, or "" when err is not an *Error.
func KindOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
