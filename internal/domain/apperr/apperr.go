// Package apperr defines the error taxonomy shared by all workflow
// operations. Every operation returns exactly one of these kinds for
// caller-visible failures so the UI layer can decide between a retry
// affordance and a hard stop.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a workflow error
type Kind string

const (
	// KindValidation: malformed or missing input. Caller-recoverable.
	KindValidation Kind = "VALIDATION"
	// KindPermission: actor lacks the role or relationship required.
	KindPermission Kind = "PERMISSION"
	// KindNotFound: referenced entity does not exist.
	KindNotFound Kind = "NOT_FOUND"
	// KindInvalidState: operation not legal from the subject's current status.
	KindInvalidState Kind = "INVALID_STATE"
	// KindPrecondition: a required prior step on a related entity is missing.
	KindPrecondition Kind = "PRECONDITION"
	// KindConflict: concurrent modification detected. Safe to retry after re-read.
	KindConflict Kind = "CONFLICT"
)

// Error is a typed workflow error
type Error struct {
	Kind Kind
	Msg  string
	// CurrentState and AttemptedState are set for KindInvalidState
	CurrentState   string
	AttemptedState string
	Err            error
}

func (e *Error) Error() string {
	if e.Kind == KindInvalidState && e.CurrentState != "" {
		return fmt.Sprintf("%s: %s (current=%s, attempted=%s)", e.Kind, e.Msg, e.CurrentState, e.AttemptedState)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the caller may retry after refreshing state
func (e *Error) Retryable() bool {
	return e.Kind == KindConflict || e.Kind == KindInvalidState
}

// Validation creates a KindValidation error
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Permission creates a KindPermission error
func Permission(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPermission, Msg: fmt.Sprintf(format, args...)}
}

// NotFound creates a KindNotFound error
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// InvalidState creates a KindInvalidState error naming both states
func InvalidState(current, attempted, msg string) *Error {
	return &Error{Kind: KindInvalidState, Msg: msg, CurrentState: current, AttemptedState: attempted}
}

// Precondition creates a KindPrecondition error
func Precondition(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPrecondition, Msg: fmt.Sprintf(format, args...)}
}

// Conflict creates a KindConflict error
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err if it is (or wraps) an *Error, or "" otherwise
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
