package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mroshb/moodgram/internal/middleware"
	"github.com/mroshb/moodgram/internal/security"
	"github.com/mroshb/moodgram/pkg/errors"
	"github.com/mroshb/moodgram/pkg/logger"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	userIDKey
)

const requestIDHeader = "X-Request-ID"

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// UserIDFrom returns the authenticated user id, empty outside auth routes.
func UserIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// withRequestID tags every request with an id, reusing a well-formed
// incoming one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("HTTP request",
			"request_id", requestIDFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func withIPRateLimit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.CheckIPLimit(clientIP(r)) {
				writeError(w, r, errors.New(errors.ErrCodeRateLimitExceeded, "too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// withAuth requires a valid bearer token and applies the per-user limit.
func withAuth(secret string, rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if header == "" || token == header {
				writeError(w, r, errors.New(errors.ErrCodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := security.ValidateJWT(token, secret)
			if err != nil {
				writeError(w, r, errors.Wrap(err, errors.ErrCodeUnauthorized, "invalid token"))
				return
			}

			if !rl.CheckUserLimit(claims.UserID) {
				writeError(w, r, errors.New(errors.ErrCodeRateLimitExceeded, "too many requests"))
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, claims.UserID)))
		})
	}
}
