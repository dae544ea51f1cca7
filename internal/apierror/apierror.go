// Package apierror provides standardized error response structures for the API
// together with the engine's error taxonomy. Every failure a caller can act on is
// an *Error carrying a Kind; anything else is an internal error and is never
// surfaced verbatim (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Kind   string `json:"kind,omitempty"`
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Kind   string            `json:"kind"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Kind: string(KindValidation), Detail: "validation failed", Fields: fields}
}

// Kind classifies an engine failure. None of them are retryable.
type Kind string

const (
	KindValidation          Kind = "validation_error"
	KindInvalidAmount       Kind = "invalid_amount"
	KindNegativeAmount      Kind = "negative_amount"
	KindInvalidState        Kind = "invalid_state"
	KindConflictAlreadyOpen Kind = "conflict_already_open"
	KindNotFound            Kind = "not_found"
)

// Error is a local, synchronous engine failure.
type Error struct {
	Kind   Kind
	Detail string
	Fields map[string]string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Is matches any *Error of the same Kind, so callers can write
// errors.Is(err, apierror.ErrNotFound).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrInvalidAmount       = &Error{Kind: KindInvalidAmount}
	ErrNegativeAmount      = &Error{Kind: KindNegativeAmount}
	ErrInvalidState        = &Error{Kind: KindInvalidState}
	ErrConflictAlreadyOpen = &Error{Kind: KindConflictAlreadyOpen}
	ErrNotFound            = &Error{Kind: KindNotFound}
)

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error { return newf(KindValidation, format, args...) }

// ValidationFields reports several field failures at once.
func ValidationFields(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Detail: "validation failed", Fields: fields}
}

func InvalidAmount(format string, args ...any) *Error { return newf(KindInvalidAmount, format, args...) }

func NegativeAmount(format string, args ...any) *Error {
	return newf(KindNegativeAmount, format, args...)
}

func InvalidState(format string, args ...any) *Error { return newf(KindInvalidState, format, args...) }

func ConflictAlreadyOpen(format string, args ...any) *Error {
	return newf(KindConflictAlreadyOpen, format, args...)
}

func NotFound(format string, args ...any) *Error { return newf(KindNotFound, format, args...) }

// KindOf returns the Kind of err, or "" for internal errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HTTPStatus maps an error to the response status handlers should use.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInvalidAmount, KindNegativeAmount:
		return http.StatusUnprocessableEntity
	case KindInvalidState, KindConflictAlreadyOpen:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Body builds the JSON envelope for err. Internal errors get a generic message.
func Body(err error) any {
	var e *Error
	if !errors.As(err, &e) {
		return New("internal server error")
	}
	if len(e.Fields) > 0 {
		return &ValidationError{Kind: string(e.Kind), Detail: e.Detail, Fields: e.Fields}
	}
	return &APIError{Kind: string(e.Kind), Detail: e.Detail}
}
