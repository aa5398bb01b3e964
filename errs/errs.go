// Package errs implements the closed error-kind taxonomy every component
// converts its failures into before returning to a caller: the consumer
// runner and the HTTP responders are the only places a Kind is turned into
// behavior (retry, dead-letter, status code).
package errs

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind is the closed enumeration of error categories. Adding a new kind is
// a code change: every switch over Kind in this module is exhaustive and
// the compiler (via go vet's exhaustive checks, run by CI) is expected to
// catch a missed case.
type Kind string

const (
	NotFound     Kind = "not_found"
	BadRequest   Kind = "bad_request"
	Unauthorized Kind = "unauthorized"
	Upstream     Kind = "upstream"
	Transient    Kind = "transient"
	Invariant    Kind = "invariant"
	Fatal        Kind = "fatal"
)

// Error wraps an underlying cause with a Kind, a message, and a clonable
// cause chain compatible with errors.Is/errors.As via Unwrap.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// stackTracer is the interface github.com/pkg/errors attaches to a wrapped
// error; used to avoid stacking a second trace onto a cause that already
// carries one.
type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// Wrap attaches kind and message to an existing error, preserving it as
// the Unwrap chain so errors.Is/As still see through to it. The cause is
// captured with a stack trace (via github.com/pkg/errors) the first time
// it crosses a boundary, so a Fatal logged at the top of a request or
// consumer handler still points back to where it originated.
func Wrap(kind Kind, message string, cause error) *Error {
	if cause != nil {
		if _, hasStack := cause.(stackTracer); !hasStack {
			cause = pkgerrors.WithStack(cause)
		}
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// NotFoundf is a convenience constructor mirroring the frequent
// "expected absence" case (cache miss, missing DB row).
func NotFoundf(format string, args ...interface{}) *Error {
	return New(NotFound, fmt.Sprintf(format, args...))
}

// BadRequestf is a convenience constructor for client-supplied invalid
// input.
func BadRequestf(format string, args ...interface{}) *Error {
	return New(BadRequest, fmt.Sprintf(format, args...))
}

// Transientf marks err as retryable by the consumer runner / upstream
// retry wrapper.
func Transientf(cause error, format string, args ...interface{}) *Error {
	return Wrap(Transient, fmt.Sprintf(format, args...), cause)
}

// KindOf extracts the Kind of err if it (or something it wraps) is an
// *Error, defaulting to Fatal for unrecognized errors — an error that
// reaches a boundary without a Kind is treated as the least forgiving
// category rather than silently succeeding.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Fatal
}

// Retryable reports whether the consumer runner should requeue a delivery
// that failed with err, per the retry policy: only Transient and Upstream
// kinds are retried; Invariant never retries.
func Retryable(err error) bool {
	switch KindOf(err) {
	case Transient, Upstream:
		return true
	default:
		return false
	}
}
