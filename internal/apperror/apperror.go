// Package apperror defines the error kinds surfaced by the API and their HTTP mapping.
package apperror

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies an Error.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindRateLimited   Kind = "rate_limited"
	KindPersistence   Kind = "persistence"
	KindRouteNotFound Kind = "route_not_found"
	KindInternal      Kind = "internal"
)

// FieldError describes one violated rule of a request payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the single error type rendered by the HTTP error handler.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Details map[string]any

	cause error
	stack error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Status returns the HTTP status code carried by the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound, KindRouteNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// CauseText returns the underlying error text, or "" when there is none.
func (e *Error) CauseText() string {
	if e.cause == nil {
		return ""
	}
	return e.cause.Error()
}

// Stack renders the stack captured when the error was created.
func (e *Error) Stack() string {
	if e.stack == nil {
		return ""
	}
	return fmt.Sprintf("%+v", e.stack)
}

func newError(kind Kind, message string, cause error) *Error {
	e := &Error{Kind: kind, Message: message, cause: cause}
	if cause != nil {
		e.stack = errors.WithStack(cause)
	} else {
		e.stack = errors.New(message)
	}
	return e
}

// Validation reports rejected input. fields lists every violated rule.
func Validation(message string, fields ...FieldError) *Error {
	e := newError(KindValidation, message, nil)
	e.Fields = fields
	return e
}

// NotFound reports a missing resource.
func NotFound(message string) *Error {
	return newError(KindNotFound, message, nil)
}

// RateLimited reports a client over its request budget.
func RateLimited(message string) *Error {
	return newError(KindRateLimited, message, nil)
}

// Persistence wraps a storage failure; message is the client facing summary.
func Persistence(message string, cause error) *Error {
	return newError(KindPersistence, message, cause)
}

// RouteNotFound reports a request that matched no route.
func RouteNotFound(path string) *Error {
	return newError(KindRouteNotFound, "route not found - "+path, nil)
}

// Internal wraps an unexpected failure.
func Internal(cause error) *Error {
	return newError(KindInternal, "internal server error", cause)
}

// WithDetails attaches extra diagnostic data shown in development mode.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// From converts any error into an *Error, treating unknown errors as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
