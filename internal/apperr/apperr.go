// Package apperr defines the error kinds the HTTP layer knows how to render.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindProvider
	KindSignatureMismatch
	KindPersistence
)

type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Status: http.StatusForbidden, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Status: http.StatusConflict, Message: msg}
}

// Provider reports a payment provider rejection. A zero status becomes 500.
func Provider(status int, msg string, err error) *Error {
	if status < 400 {
		status = http.StatusInternalServerError
	}
	if msg == "" {
		msg = "Payment provider error"
	}
	return &Error{Kind: KindProvider, Status: status, Message: msg, Err: err}
}

func SignatureMismatch() *Error {
	return &Error{Kind: KindSignatureMismatch, Status: http.StatusBadRequest, Message: "Payment verification failed: signature mismatch"}
}

// Persistence hides the storage error behind a generic message.
func Persistence(err error) *Error {
	return &Error{Kind: KindPersistence, Status: http.StatusInternalServerError, Message: "Internal server error", Err: err}
}

// Describe returns the HTTP status and client-facing message for err.
func Describe(err error) (int, string) {
	var e *Error
	if errors.As(err, &e) {
		return e.Status, e.Message
	}
	return http.StatusInternalServerError, "Internal server error"
}

func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
