package telemetry

import (
	"log/slog"

	"github.com/google/uuid"
)

// NewRunID mints the ID of one run submitted through internal/api, the same
// way backend/server/middleware.go mints a request correlation ID.
func NewRunID() string { return uuid.NewString() }

// Logger returns l, or slog.Default() if l is nil, mirroring the
// zero-value fallback used throughout the teacher's Config constructors.
func Logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// WithRun returns a logger with run_id bound, for threading a single
// invocation's correlation id through every log line it produces.
func WithRun(l *slog.Logger, runID string) *slog.Logger {
	return Logger(l).With("run_id", runID)
}
