// Package apperr is the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnprocessable
	KindNotFound
	KindPermissionDenied
	KindForbidden
	KindUnauthorized
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnprocessable:
		return "unprocessable"
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// InternalMessage is shown to clients for every KindInternal error.
const InternalMessage = "Something went wrong. Please try again."

// Error carries a client-safe message and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind so callers can write errors.Is(err, apperr.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindUnprocessable:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindPermissionDenied, KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Kind sentinels for errors.Is.
var (
	ErrValidation       = &Error{Kind: KindValidation}
	ErrUnprocessable    = &Error{Kind: KindUnprocessable}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrPermissionDenied = &Error{Kind: KindPermissionDenied}
	ErrForbidden        = &Error{Kind: KindForbidden}
	ErrUnauthorized     = &Error{Kind: KindUnauthorized}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrInternal         = &Error{Kind: KindInternal}
)

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// Unprocessable reports field-level validation failures.
func Unprocessable(fields map[string]string) *Error {
	return &Error{Kind: KindUnprocessable, Message: "Validation failed", Fields: fields}
}

// NotFound builds the "<Entity> not found." error.
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found."}
}

func NotFoundMsg(msg string) *Error      { return &Error{Kind: KindNotFound, Message: msg} }
func PermissionDenied(msg string) *Error { return &Error{Kind: KindPermissionDenied, Message: msg} }
func Forbidden(msg string) *Error        { return &Error{Kind: KindForbidden, Message: msg} }
func Unauthorized(msg string) *Error     { return &Error{Kind: KindUnauthorized, Message: msg} }
func Conflict(msg string) *Error         { return &Error{Kind: KindConflict, Message: msg} }

// Internal wraps an unexpected failure. The cause is logged, never rendered.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: InternalMessage, Err: err}
}

// From returns err as an *Error, wrapping anything else as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
