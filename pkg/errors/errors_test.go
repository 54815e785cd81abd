package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Constructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"validation", ErrValidation("bad"), CodeValidationError, http.StatusBadRequest},
		{"not found", ErrNotFoundWithID("scan session", "s-1"), CodeNotFound, http.StatusNotFound},
		{"bad request", ErrBadRequest("bad body"), CodeBadRequest, http.StatusBadRequest},
		{"content type", New(CodeInvalidContentType, "json only"), CodeInvalidContentType, http.StatusUnsupportedMediaType},
		{"session closed", ErrSessionClosed("s-1"), CodeSessionClosed, http.StatusGone},
		{"internal", ErrInternal(""), CodeInternalError, http.StatusInternalServerError},
		{"unavailable", ErrServiceUnavailable("camera scanner"), CodeServiceUnavailable, http.StatusServiceUnavailable},
		{"timeout", ErrTimeout("validate"), CodeTimeout, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
		})
	}
}

func TestAppError_Details(t *testing.T) {
	err := ErrNotFoundWithID("scan session", "s-1")

	assert.Equal(t, "scan session not found", err.Message)
	assert.Equal(t, map[string]string{"id": "s-1"}, err.Details)
}

func TestAppError_IsMatchesCode(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", ErrSessionClosed("s-1"))

	assert.ErrorIs(t, wrapped, ErrSessionClosed("s-2"))
	assert.NotErrorIs(t, wrapped, ErrNotFound("scan session"))
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrInternal("load failed").Wrap(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	appErr := ErrBadRequest("bad body")
	assert.Same(t, appErr, FromError(fmt.Errorf("wrapped: %w", appErr)))

	converted := FromError(errors.New("boom"))
	require.NotNil(t, converted)
	assert.Equal(t, CodeInternalError, converted.Code)
	assert.Equal(t, http.StatusInternalServerError, converted.HTTPStatus)
}

func TestFromError_ContextErrors(t *testing.T) {
	timeout := FromError(fmt.Errorf("load lines: %w", context.DeadlineExceeded))
	assert.Equal(t, CodeTimeout, timeout.Code)
	assert.Equal(t, http.StatusGatewayTimeout, timeout.HTTPStatus)
	assert.ErrorIs(t, timeout, context.DeadlineExceeded)

	canceled := FromError(context.Canceled)
	assert.Equal(t, CodeCanceled, canceled.Code)
	assert.Equal(t, 499, canceled.HTTPStatus)
}

func TestStatusFor_UnknownCode(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusFor("SOMETHING_ELSE"))
	assert.Equal(t, http.StatusGone, StatusFor(CodeSessionClosed))
}

func TestWithDetails_Merges(t *testing.T) {
	err := ErrNotFoundWithID("operation", "op-1").WithDetails(map[string]string{"model": "stock.picking"})

	assert.Equal(t, map[string]string{"id": "op-1", "model": "stock.picking"}, err.Details)
}
