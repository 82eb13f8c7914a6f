package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NewBadRequestError(""), http.StatusBadRequest},
		{NewValidationError("email"), http.StatusBadRequest},
		{NewUnauthorizedError(""), http.StatusUnauthorized},
		{NewPaymentRequiredError(), http.StatusPaymentRequired},
		{NewForbiddenError(""), http.StatusForbidden},
		{NewNotFoundError(""), http.StatusNotFound},
		{NewConflictError("finns redan"), http.StatusConflict},
		{NewAppError(CodeTooManyRequests, "", ""), http.StatusTooManyRequests},
		{NewInternalError(""), http.StatusInternalServerError},
		{NewDatabaseError("load recipe", errors.New("boom")), http.StatusInternalServerError},
		{NewBadGatewayError("upstream", nil), http.StatusBadGateway},
		{NewServiceUnavailableError("ai model", nil), http.StatusServiceUnavailable},
		{NewAppError("SOMETHING_ELSE", "", ""), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestDefaultMessages(t *testing.T) {
	assert.Equal(t, "Resursen hittades inte", NewNotFoundError("").Message)
	assert.Equal(t, "Receptet hittades inte", NewNotFoundError("Receptet hittades inte").Message)
	assert.Equal(t, "Du måste vara inloggad", NewUnauthorizedError("").Message)
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "x"))

	notFound := NewNotFoundError("")
	assert.Same(t, notFound, Wrap(fmt.Errorf("load: %w", notFound), "x"))

	cause := errors.New("disk full")
	wrapped := Wrap(cause, "")
	assert.Equal(t, CodeInternal, wrapped.Code)
	assert.ErrorIs(t, wrapped, cause)
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("charge: %w", NewPaymentRequiredError())

	assert.True(t, Is(err, CodePaymentRequired))
	assert.False(t, Is(err, CodeNotFound))
	assert.False(t, Is(errors.New("plain"), CodeInternal))
}

func TestToErrorResponse(t *testing.T) {
	t.Run("hides database details", func(t *testing.T) {
		resp := ToErrorResponse(NewDatabaseError("save item", errors.New("pq: deadlock")), "req-1")

		assert.Equal(t, "Databasfel", resp.Detail)
		assert.Empty(t, resp.Details)
		assert.Equal(t, "req-1", resp.RequestID)
		assert.NotEmpty(t, resp.Timestamp)
	})

	t.Run("never renders the upstream cause", func(t *testing.T) {
		cause := errors.New(`Post "https://example.test/models/m:generateContent?key=s3cret": dial tcp: connection refused`)

		resp := ToErrorResponse(NewBadGatewayError("Fel vid API-förfrågan", cause), "")

		assert.Equal(t, CodeBadGateway, resp.Code)
		assert.Empty(t, resp.Details)
	})

	t.Run("keeps details set explicitly", func(t *testing.T) {
		appErr := NewBadGatewayError("Misslyckades att tolka svaret", nil).WithDetails("invalid character 'H'")

		resp := ToErrorResponse(appErr, "")

		assert.Equal(t, "invalid character 'H'", resp.Details)
	})

	t.Run("carries field metadata", func(t *testing.T) {
		appErr := NewValidationError("email").WithMetadata("email", "ogiltig e-postadress")

		resp := ToErrorResponse(appErr, "")

		require.NotNil(t, resp.Metadata)
		assert.Equal(t, "ogiltig e-postadress", resp.Metadata["email"])
	})
}

func TestError(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: Resursen hittades inte", NewNotFoundError("").Error())
	assert.Equal(t, "VALIDATION_FAILED: Valideringen misslyckades (email)", NewValidationError("email").Error())
}
