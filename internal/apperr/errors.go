// Package apperr defines the error taxonomy shared by services and the
// HTTP layer. Services classify failures with a Kind; the HTTP adapter
// maps kinds to status codes.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindInvalidWorkflow
	KindInvalidState
	KindForbidden
	KindConflict
	KindInternal
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInvalidWorkflow:
		return "invalid_workflow"
	case KindInvalidState:
		return "invalid_state"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is an application error carrying a kind, a caller-facing message
// and, for validation failures, the offending field.
type Error struct {
	Kind  Kind
	Msg   string
	Field string
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation creates a validation error for the given field.
func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg, Field: field}
}

// Validationf creates a validation error with a formatted message.
func Validationf(field, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...), Field: field}
}

// NotFound creates a not-found error for the given resource and id.
func NotFound(resource, id string) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("%s %s not found", resource, id)}
}

// InvalidWorkflow creates an error for a template that is unusable at
// request-creation time.
func InvalidWorkflow(msg string) *Error {
	return &Error{Kind: KindInvalidWorkflow, Msg: msg}
}

// InvalidState creates an error for an action attempted against a request
// not in an actionable status, including the loser of a concurrent
// transition race. Callers may retry after re-fetching current state.
func InvalidState(msg string) *Error {
	return &Error{Kind: KindInvalidState, Msg: msg}
}

// Forbidden creates an authorization error.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

// Conflict creates a structural-conflict error.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Msg: msg}
}

// Internal wraps an unclassified failure (store unavailable, codec
// failure). Surfaced to callers as a generic internal error.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Msg: "internal error", Err: err}
}

// KindOf returns the kind of err, or KindUnknown for errors outside the
// taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// MessageOf returns the caller-facing message of err, or the raw error
// string for errors outside the taxonomy.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindInternal {
			return e.Msg
		}
		if e.Field != "" {
			return fmt.Sprintf("%s: %s", e.Field, e.Msg)
		}
		return e.Msg
	}
	return err.Error()
}
