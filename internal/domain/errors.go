package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable machine-readable code attached to every failure the
// core can surface. Kinds are terminal for the current request; nothing is
// retried internally.
type ErrorKind string

const (
	KindUnauthenticated       ErrorKind = "unauthenticated"
	KindInvalidArgument       ErrorKind = "invalid_argument"
	KindCredentialUnavailable ErrorKind = "credential_unavailable"
	KindGenerationFailed      ErrorKind = "generation_failed"
	KindInvalidModelOutput    ErrorKind = "invalid_model_output"
	KindNotFound              ErrorKind = "not_found"
	KindInvalidQuizState      ErrorKind = "invalid_quiz_state"
	KindPermissionDenied      ErrorKind = "permission_denied"
	KindInternal              ErrorKind = "internal"
)

// Error carries a kind plus a message safe to show callers. The wrapped cause
// (raw provider responses, SQL errors) stays server-side.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a typed error.
func E(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a typed error around a cause.
func Wrap(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from any error in the chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
