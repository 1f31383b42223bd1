package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dandidav/gateway/internal/gatewayerr"
)

type ctxKey int

const requestIDKey ctxKey = iota

// requestIDMiddleware stamps every request with a google/uuid request
// ID, echoed in the access log and available to handlers via
// RequestIDFromContext.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the request ID stamped by
// requestIDMiddleware, or "" if none is present.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// statusRecorder captures the status code a downstream handler wrote,
// for access logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// accessLogMiddleware logs one structured line per request (method,
// path, status, latency) and records the request-count/latency
// metrics.
func (s *Server) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		s.metrics.RequestsTotal.WithLabelValues(r.Method, statusClass(rec.status)).Inc()
		s.metrics.RequestDuration.WithLabelValues(r.Method).Observe(elapsed.Seconds())

		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("latency", elapsed),
			zap.String("request_id", RequestIDFromContext(r.Context())),
		)
	})
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// recoverMiddleware maps a panic to gatewayerr.Internal and a 500
// response instead of tearing down the listener, per the Internal
// error kind's "also used for panics caught by the HTTP framework"
// definition.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("panic", rec), zap.String("path", r.URL.Path))
				s.responder.RenderError(w, gatewayerr.New(gatewayerr.Internal, "httpapi.recoverMiddleware", nil))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
