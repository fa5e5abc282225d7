package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

var apiLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dispatchsim_api_latency_seconds",
	Help:    "Time spent serving HTTP handlers.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "path", "status"})

func init() {
	prometheus.MustRegister(apiLatency)
}

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// wrap adds correlation-ID propagation, request logging, and latency
// metrics around every handler, grounded on backend/server/middleware.go's
// wrap/extractOrCreateCorrelationID pair.
func (s *Server) wrap(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		correlationID := s.extractOrCreateCorrelationID(r)

		ctx := context.WithValue(r.Context(), correlationIDKey, correlationID)
		r = r.WithContext(ctx)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		recorder.Header().Set(s.correlationHeader, correlationID)

		handler(recorder, r)

		duration := time.Since(start)
		s.logger.Info("request completed",
			"path", r.URL.Path,
			"method", r.Method,
			"status", recorder.status,
			"duration_ms", duration.Milliseconds(),
			"correlation_id", correlationID,
		)

		apiLatency.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(recorder.status)).Observe(duration.Seconds())
	}
}

func (s *Server) extractOrCreateCorrelationID(r *http.Request) string {
	if existing := r.Header.Get(s.correlationHeader); existing != "" {
		return existing
	}
	return uuid.NewString()
}

func correlationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}
