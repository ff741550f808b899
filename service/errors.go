package service

import (
	"errors"
	"fmt"
)

// ErrNonRetryable marks failures that will not succeed on redelivery.
var ErrNonRetryable = errors.New("non-retryable error")

type Kind string

const (
	KindValidation      Kind = "VALIDATION"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindNotFound        Kind = "NOT_FOUND"
	KindUpload          Kind = "UPLOAD"
	KindDatabase        Kind = "DATABASE"
	KindInternal        Kind = "INTERNAL"
)

// Error is the failure type returned by every video operation. Message is safe
// to show to clients; Cause carries the underlying failure for logs.
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

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func ValidationError(message string) *Error {
	return newError(KindValidation, message, nil)
}

func UnauthenticatedError(message string) *Error {
	return newError(KindUnauthenticated, message, nil)
}

func NotFoundError(message string, cause error) *Error {
	return newError(KindNotFound, message, cause)
}

func UploadError(message string, cause error) *Error {
	return newError(KindUpload, message, cause)
}

func DatabaseError(message string, cause error) *Error {
	return newError(KindDatabase, message, cause)
}

// KindOf reports the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
