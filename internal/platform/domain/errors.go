package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies an AppError for propagation and transport mapping.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindTransient    ErrorKind = "transient"
	KindInternal     ErrorKind = "internal"
)

// Common error codes shared across aggregates.
const (
	CodeValidation             = "VALIDATION_ERROR"
	CodeConflict               = "CONFLICT"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeForbidden              = "FORBIDDEN"
	CodeBusy                   = "BUSY"
	CodeInternal               = "INTERNAL_ERROR"
)

// AppError is the typed error returned by domain and application code.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *AppError) Unwrap() error { return e.Err }

// WithDetail attaches a key/value pair that is rendered to API clients.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewValidationError reports bad caller input.
func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Code: CodeValidation, Message: message}
}

// NewNotFoundError reports a missing entity. The code is derived from the entity
// name, e.g. "Tour" yields TOUR_NOT_FOUND.
func NewNotFoundError(entity, id string) *AppError {
	code := strings.ToUpper(strings.ReplaceAll(entity, " ", "_")) + "_NOT_FOUND"
	return &AppError{
		Kind:    KindNotFound,
		Code:    code,
		Message: fmt.Sprintf("%s not found: %s", entity, id),
	}
}

// NewConflictError reports a generic conflict with current state.
func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Code: CodeConflict, Message: message}
}

// NewConflictErrorWithCode reports a conflict with a specific business code.
func NewConflictErrorWithCode(code, message string) *AppError {
	return &AppError{Kind: KindConflict, Code: code, Message: message}
}

// NewInvalidStateError reports an illegal state machine transition.
func NewInvalidStateError(from, to string) *AppError {
	return &AppError{
		Kind:    KindConflict,
		Code:    CodeInvalidStateTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// NewUnauthorizedError reports missing or invalid credentials.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Code: CodeUnauthorized, Message: message}
}

// NewForbiddenError reports a failed role or ownership check.
func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Code: CodeForbidden, Message: message}
}

// NewTransientError reports a retriable failure such as lock contention.
func NewTransientError(code, message string, cause error) *AppError {
	return &AppError{Kind: KindTransient, Code: code, Message: message, Err: cause}
}

// NewInternalError reports a broken invariant or unexpected failure.
func NewInternalError(message string, cause error) *AppError {
	return &AppError{Kind: KindInternal, Code: CodeInternal, Message: message, Err: cause}
}

// AsAppError extracts an AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) ErrorKind {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Kind == kind
}

// IsTransient reports whether err may succeed when retried.
func IsTransient(err error) bool {
	return IsKind(err, KindTransient)
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
