package middleware

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Dan9191/account-record-service/internal/logger"
	"github.com/Dan9191/account-record-service/internal/models"
	"github.com/Dan9191/account-record-service/internal/response"
	"github.com/Dan9191/account-record-service/internal/service"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	CorrelationHeader   = "X-Correlation-ID"
	maxCorrelationIDLen = 128
)

type userKey struct{}

// Authenticator resolves a bearer token to a user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// UserFromContext returns the authenticated user, if any
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey{}).(*models.User)
	return user, ok
}

// CorrelationID reuses the caller's correlation id or generates one
func CorrelationID(log logrus.FieldLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(CorrelationHeader))
			if id == "" || len(id) > maxCorrelationIDLen {
				id = uuid.NewString()
			}
			w.Header().Set(CorrelationHeader, id)
			ctx := logger.WithCorrelationID(r.Context(), log, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging logs one line per request
func Logging(log logrus.FieldLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			entry := logger.FromContext(r.Context(), log).WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.status,
				"duration_ms": time.Since(started).Milliseconds(),
			})
			if rec.status >= http.StatusInternalServerError {
				entry.Error("Request failed")
				return
			}
			entry.Info("Request handled")
		})
	}
}

// Recovery turns handler panics into 500 responses
func Recovery(log logrus.FieldLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					logger.FromContext(r.Context(), log).WithFields(logrus.Fields{
						"panic": p,
						"stack": string(debug.Stack()),
					}).Error("Handler panicked")
					response.Error(w, r, response.KindInternal, "An unexpected error occurred", nil)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// AuthMiddleware requires a valid bearer token and an enabled user
func AuthMiddleware(authenticator Authenticator) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				response.Error(w, r, response.KindAuthenticationFailed, "Authorization header required", nil)
				return
			}
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(token) == "" {
				response.Error(w, r, response.KindAuthenticationFailed, "Invalid Authorization header format", nil)
				return
			}

			user, err := authenticator.Authenticate(r.Context(), strings.TrimSpace(token))
			switch {
			case err == nil:
			case errors.Is(err, service.ErrInvalidToken):
				response.Error(w, r, response.KindAuthenticationFailed, "Invalid or expired token", nil)
				return
			case errors.Is(err, service.ErrForbidden):
				response.Error(w, r, response.KindAccessDenied, "Access denied", nil)
				return
			default:
				response.Error(w, r, response.KindInternal, "An unexpected error occurred", nil)
				return
			}

			ctx := context.WithValue(r.Context(), userKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
