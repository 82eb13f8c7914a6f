// Package middleware provides the chi middleware of the API: access logging, security
// headers and bearer authentication.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/foodisave/backend/internal/infrastructure/http/render"
	"github.com/foodisave/backend/internal/infrastructure/monitoring"
	"github.com/foodisave/backend/internal/ports/inbound"
	apperrors "github.com/foodisave/backend/pkg/errors"
)

const msgMissingToken = "Inloggning krävs"

type callerKey struct{}

// loggedUserKey holds a slot filled by Authenticate so the access log sees the user of inner routes.
type loggedUserKey struct{}

// Logger logs one line per request. Health and metrics requests are skipped.
func Logger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			var userID int64
			r = r.WithContext(context.WithValue(r.Context(), loggedUserKey{}, &userID))

			next.ServeHTTP(ww, r)

			if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
				return
			}
			fields := []zap.Field{
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("ip", r.RemoteAddr),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("latency", time.Since(start)),
			}
			if userID != 0 {
				fields = append(fields, zap.Int64("user_id", userID))
			}
			if traceID := monitoring.TraceIDFromContext(r.Context()); traceID != "" {
				fields = append(fields, zap.String("trace_id", traceID))
			}

			switch status := ww.Status(); {
			case status >= 500:
				logger.Error("Server error", fields...)
			case status >= 400:
				logger.Warn("Client error", fields...)
			default:
				logger.Info("Request completed", fields...)
			}
		})
	}
}

// Security adds the response headers every API answer carries.
func Security() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			if id := chimiddleware.GetReqID(r.Context()); id != "" {
				h.Set("X-Request-ID", id)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate requires a valid bearer token whose session still exists and stores the
// caller in the request context.
func Authenticate(users inbound.UserService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				render.Error(w, r, logger, apperrors.NewUnauthorizedError(msgMissingToken))
				return
			}
			caller, err := users.Authenticate(r.Context(), token)
			if err != nil {
				render.Error(w, r, logger, err)
				return
			}
			if slot, ok := r.Context().Value(loggedUserKey{}).(*int64); ok {
				*slot = caller.UserID
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller inbound.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the authenticated caller, if any.
func CallerFromContext(ctx context.Context) (inbound.Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(inbound.Caller)
	return caller, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
