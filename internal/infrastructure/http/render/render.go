// Package render writes JSON responses and AppError bodies.
package render

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	apperrors "github.com/foodisave/backend/pkg/errors"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("Failed to encode JSON response", zap.Error(err))
	}
}

// Error renders err as an ErrorResponse. Errors that are not AppErrors become a 500.
// Server side failures are logged with their cause.
func Error(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	appErr := apperrors.Wrap(err, "")
	requestID := middleware.GetReqID(r.Context())
	status := appErr.StatusCode()

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("code", string(appErr.Code)),
			zap.Error(err),
		)
	}
	JSON(w, status, apperrors.ToErrorResponse(appErr, requestID))
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}
