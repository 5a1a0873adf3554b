// Package logging defines the structured-logging interface shared by the
// server packages. SlogLogger implements it on top of log/slog; other
// backends only need to satisfy Logger.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key/value pairs, e.g.:
//
//	log.Info(ctx, "invitation sent", "contract_id", id, "signer", key)
//
// Components tag their logger once with With and pass it down:
//
//	logger := base.With("module", "signatures")
//	logger.Warn(ctx, "failed to remove duplicate invitations", "contract_id", id, "error", err)
type Logger interface {
	// Debug logs diagnostic detail that is off at the default level.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions,
	// such as an email provider failure after the invitation was stored.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key/value pairs.
	With(args ...any) Logger
}
