package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

type ctxKey int

const requestIDKey ctxKey = iota

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		r = r.WithContext(logging.WithRequest(r.Context(), s.logger, requestIDFromContext(r.Context())))
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = r.Method + " " + pattern
			}
		}
		metrics.IncHTTP(endpoint, recorder.status)

		reqLogger := logging.FromContext(r.Context(), s.logger)
		event := reqLogger.Info()
		if recorder.status >= http.StatusInternalServerError {
			event = reqLogger.Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

// userQuotaMiddleware enforces the per-user request quota keyed by the
// X-Sharer-User-Id header. Quota store failures let the request through.
func (s *HTTPServer) userQuotaMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := s.cfg.UserRateLimit
		if s.quota == nil || !limit.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := userIDFromHeader(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		window := time.Duration(limit.Window) * time.Second
		if window <= 0 {
			window = models.UserRateLimitWindow * time.Second
		}

		allowed, err := s.quota.CheckRateLimit(r.Context(), userID, limit.Requests, window)
		if err != nil {
			s.logger.Error().Err(err).Int64("user_id", userID).Msg("user quota check failed")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			metrics.IncRateLimited("user")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
