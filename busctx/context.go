package busctx

import (
	"context"
	"log/slog"
)

type ctxKey int

const verboseKey ctxKey = iota

// IsVerbose reports whether bus adapters should trace every transfer.
func IsVerbose(ctx context.Context) bool {
	verbose, _ := ctx.Value(verboseKey).(bool)
	return verbose
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, verboseKey, value)
}

// Trace logs a transfer at debug level when ctx is verbose.
func Trace(ctx context.Context, msg string, args ...any) {
	if !IsVerbose(ctx) {
		return
	}
	slog.DebugContext(ctx, msg, args...)
}
