package internal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NewRunID returns the correlation ID stamped on every log line of a
// reconciliation run. The run's logger carries it through the context,
// so downstream packages never handle the ID directly.
func NewRunID() string {
	return uuid.NewString()
}

// WithTimeout returns a context with timeout, defaulting to 30 seconds if
// duration is zero or negative. The reporting API has no documented SLO,
// so every request gets an explicit deadline rather than the transport
// default of none.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 30 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
