package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried in API error bodies
const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeNotFound           = "RESOURCE_NOT_FOUND"
	CodeRouteNotFound      = "ROUTE_NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeBadRequest         = "BAD_REQUEST"
	CodeInvalidContentType = "INVALID_CONTENT_TYPE"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeTimeout            = "TIMEOUT"
	CodeCanceled           = "REQUEST_CANCELED"
	CodeSessionClosed      = "SESSION_CLOSED"
)

var statusByCode = map[string]int{
	CodeValidationError:    http.StatusBadRequest,
	CodeBadRequest:         http.StatusBadRequest,
	CodeNotFound:           http.StatusNotFound,
	CodeRouteNotFound:      http.StatusNotFound,
	CodeInvalidContentType: http.StatusUnsupportedMediaType,
	CodeSessionClosed:      http.StatusGone,
	CodeCanceled:           499,
	CodeInternalError:      http.StatusInternalServerError,
	CodeServiceUnavailable: http.StatusServiceUnavailable,
	CodeTimeout:            http.StatusGatewayTimeout,
}

// StatusFor returns the HTTP status served for an error code. Unknown codes are 500.
func StatusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// AppError is an error that knows how it is rendered to API clients
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

// New builds an AppError served with the status registered for code
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: StatusFor(code)}
}

// Newf is New with a formatted message
func Newf(code, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

func (e *AppError) Error() string {
	msg := e.Code + ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// WithDetail sets one detail entry
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string, 1)
	}
	e.Details[key] = value
	return e
}

// WithDetails merges fields into the error details
func (e *AppError) WithDetails(fields map[string]string) *AppError {
	for k, v := range fields {
		e.WithDetail(k, v)
	}
	return e
}

// Wrap records the underlying cause
func (e *AppError) Wrap(cause error) *AppError {
	e.Err = cause
	return e
}

func ErrValidation(message string) *AppError {
	return New(CodeValidationError, message)
}

func ErrValidationWithFields(message string, fields map[string]string) *AppError {
	return ErrValidation(message).WithDetails(fields)
}

func ErrBadRequest(message string) *AppError {
	return New(CodeBadRequest, message)
}

func ErrNotFound(resource string) *AppError {
	return Newf(CodeNotFound, "%s not found", resource)
}

func ErrNotFoundWithID(resource, id string) *AppError {
	return ErrNotFound(resource).WithDetail("id", id)
}

// ErrSessionClosed reports a command sent to a scan session that has been torn down
func ErrSessionClosed(sessionID string) *AppError {
	return New(CodeSessionClosed, "scan session is closed").WithDetail("sessionId", sessionID)
}

func ErrServiceUnavailable(service string) *AppError {
	return Newf(CodeServiceUnavailable, "%s is temporarily unavailable", service)
}

func ErrTimeout(operation string) *AppError {
	return Newf(CodeTimeout, "%s timed out", operation)
}

// ErrInternal hides the cause from clients; an empty message gets a generic one
func ErrInternal(message string) *AppError {
	if message == "" {
		message = "an internal error occurred"
	}
	return New(CodeInternalError, message)
}

// AsAppError finds the first AppError in err's chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// FromError maps any error onto an AppError. Context expiry keeps its meaning,
// everything else unknown becomes an internal error.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout("request").Wrap(err)
	case errors.Is(err, context.Canceled):
		return New(CodeCanceled, "request was canceled").Wrap(err)
	default:
		return ErrInternal("").Wrap(err)
	}
}
