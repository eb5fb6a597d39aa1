// Package logging is the structured logger handed to every store and the
// session controller. The only implementation sits on log/slog.
package logging

import "context"

// Logger takes a message plus alternating key/value pairs:
//
//	log.Warn(ctx, "plain tier write failed", "tier", "plain", "err", err)
//
// Stores attach their tier once through With.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that adds args to every record.
	With(args ...any) Logger
}
