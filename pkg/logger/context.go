package logger

import (
	"context"
	"log/slog"
)

type ctxKey string

const loggerKey ctxKey = "logger"

// Into stores a logger in the context so everything downstream of a run
// inherits its fields, the run correlation ID in particular.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// With derives the context's logger with extra fields and stores the
// result.
func With(ctx context.Context, fields ...any) context.Context {
	return Into(ctx, From(ctx).With(fields...))
}

// From returns the logger stored in the context, or the process-wide
// logger when none is set.
func From(ctx context.Context) *slog.Logger {
	return Or(ctx, nil)
}

// Or returns the logger stored in the context, or fallback when none is
// set. Services pass their own logger as the fallback so unit tests
// keep their injected handler.
func Or(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	if fallback != nil {
		return fallback
	}
	return LoggerWrapper()
}
