// Package testutils provides custom assertions and testing utilities
package testutils

import (
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/foodisave/backend/pkg/errors"
)

// RequireAppError asserts err is an AppError with the given HTTP status and returns it.
func RequireAppError(t *testing.T, err error, status int) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.Wrap(err, "")
	require.Equal(t, status, appErr.StatusCode(), "unexpected error: %v", err)
	return appErr
}

// DecodeJSON decodes a recorded response body into T.
func DecodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

// AssertErrorResponse checks the status and the detail message of an error body.
func AssertErrorResponse(t *testing.T, rec *httptest.ResponseRecorder, status int, detail string) {
	t.Helper()
	assert.Equal(t, status, rec.Code, "body: %s", rec.Body.String())
	body := DecodeJSON[apperrors.ErrorResponse](t, rec)
	if detail != "" {
		assert.Equal(t, detail, body.Detail)
	}
	assert.NotEmpty(t, body.Timestamp)
}
