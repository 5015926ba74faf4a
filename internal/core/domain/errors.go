package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a store error with a structured error code.
// The Message doubles as the lowercase reason emitted on the wire
// ("ERR <message>"), so it must stay stable across releases.
type DomainError struct {
	Code    string // Error code (e.g., "LQ-STORE-4040")
	Message string // Lowercase, wire-safe reason
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support: two DomainErrors match on Code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   cause,
	}
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Internalf creates an internal error with a formatted reason.
func Internalf(format string, args ...any) *DomainError {
	return &DomainError{
		Code:    ErrInternal.Code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Lookup errors, checked in hierarchy order.
var (
	// ErrPersonaNotFound indicates the persona does not exist.
	ErrPersonaNotFound = NewDomainError("LQ-STORE-4040", "persona not found")

	// ErrAppNotFound indicates the app does not exist within the persona.
	ErrAppNotFound = NewDomainError("LQ-STORE-4041", "app not found")

	// ErrKeyNotFound indicates the key does not exist within the app.
	ErrKeyNotFound = NewDomainError("LQ-STORE-4042", "key not found")
)

// System errors.
var (
	// ErrInternal indicates a crypto, serialization or vault-format fault.
	ErrInternal = NewDomainError("LQ-SYS-5000", "internal error")

	// ErrBadRequest indicates a malformed command or argument.
	ErrBadRequest = NewDomainError("LQ-SYS-4000", "bad request")

	// ErrConnectionFailed indicates the remote client exhausted its
	// reconnect attempts.
	ErrConnectionFailed = NewDomainError("LQ-NET-5030", "connection failed")
)

// FromReason maps a lowercase wire reason back to its sentinel error.
// Unknown reasons become an internal error carrying the reason verbatim,
// so semantic errors survive a protocol round trip intact.
func FromReason(reason string) error {
	switch reason {
	case ErrPersonaNotFound.Message:
		return ErrPersonaNotFound
	case ErrAppNotFound.Message:
		return ErrAppNotFound
	case ErrKeyNotFound.Message:
		return ErrKeyNotFound
	default:
		return &DomainError{Code: ErrInternal.Code, Message: reason}
	}
}

// IsNotFound reports whether err is one of the three lookup misses.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPersonaNotFound) ||
		errors.Is(err, ErrAppNotFound) ||
		errors.Is(err, ErrKeyNotFound)
}
