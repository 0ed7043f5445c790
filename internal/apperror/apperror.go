// Package apperror implements ORIGIN's single error taxonomy
// (spec.md §7), rendered uniformly by internal/httpserver.RespondAppError.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Code is a stable, machine-readable error code.
type Code string

const (
	CodeValidation        Code = "validation_error"
	CodeUnauthorized      Code = "unauthorized"
	CodeForbidden         Code = "forbidden"
	CodeInsufficientScope Code = "insufficient_scope"
	CodeIPDenied          Code = "ip_denied"
	CodeRateLimited       Code = "rate_limited"
	CodeNotFound          Code = "not_found"
	CodeConflict          Code = "conflict"
	CodeIdempotencyMismatch Code = "idempotency_key_conflict"
	CodeInternal          Code = "internal_error"
	CodeUnavailable       Code = "service_unavailable"
)

// Error is ORIGIN's uniform application error. It carries everything
// httpserver.RespondAppError needs to render a response, so handlers never
// hand-assemble error JSON themselves.
type Error struct {
	Code       Code
	HTTPStatus int
	Message    string
	RetryAfter *time.Duration
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Wrap attaches an underlying cause to an Error for logging, without
// changing what's exposed to the client.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

func newError(code Code, status int, msg string) *Error {
	return &Error{Code: code, HTTPStatus: status, Message: msg}
}

func Validation(msg string) *Error {
	return newError(CodeValidation, http.StatusUnprocessableEntity, msg)
}

func Unauthorized(msg string) *Error {
	return newError(CodeUnauthorized, http.StatusUnauthorized, msg)
}

func Forbidden(msg string) *Error {
	return newError(CodeForbidden, http.StatusForbidden, msg)
}

func InsufficientScope(required string) *Error {
	return newError(CodeInsufficientScope, http.StatusForbidden, fmt.Sprintf("requires scope %q", required))
}

func IPDenied() *Error {
	return newError(CodeIPDenied, http.StatusForbidden, "source IP is not permitted for this tenant")
}

func RateLimited(retryAfter time.Duration) *Error {
	e := newError(CodeRateLimited, http.StatusTooManyRequests, "rate limit exceeded")
	e.RetryAfter = &retryAfter
	return e
}

func NotFound(msg string) *Error {
	return newError(CodeNotFound, http.StatusNotFound, msg)
}

func Conflict(msg string) *Error {
	return newError(CodeConflict, http.StatusConflict, msg)
}

func IdempotencyMismatch() *Error {
	return newError(CodeIdempotencyMismatch, http.StatusConflict, "idempotency key reused with a different request body")
}

func Internal(msg string) *Error {
	return newError(CodeInternal, http.StatusInternalServerError, msg)
}

func Unavailable(msg string) *Error {
	return newError(CodeUnavailable, http.StatusServiceUnavailable, msg)
}

// As extracts an *Error from err, if present.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
