// Package logging defines the structured-logging interface used across the
// ledger server. Implementations wrap log/slog or zap.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "transfer committed", "sender", senderID, "amount", amount)
type Logger interface {
	// Debug logs verbose diagnostics, usually disabled in production.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Backend names accepted by New.
const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// Syncer is implemented by loggers that buffer output.
type Syncer interface {
	Sync() error
}

// Sync flushes l if it buffers output and is a no-op otherwise.
func Sync(l Logger) error {
	if s, ok := l.(Syncer); ok {
		return s.Sync()
	}
	return nil
}
