package helper

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type contextKey string

// LoggerKey is the context key under which the request logger is stored.
const LoggerKey = contextKey("logger")

// WithRequestLogger attaches a request-scoped logger carrying a fresh request
// id and the method name, and returns it alongside the derived context.
func WithRequestLogger(ctx context.Context, method string) (context.Context, *slog.Logger) {
	logger := slog.Default().With(
		"request_id", uuid.New().String(),
		"method", method,
	)
	return context.WithValue(ctx, LoggerKey, logger), logger
}

// GetLoggerFromContext returns the request logger, or the default logger when
// the context has none.
func GetLoggerFromContext(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(LoggerKey).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}
