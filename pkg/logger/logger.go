package logger

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// New returns the process-wide structured logger. Output is JSON on stdout;
// local and dev environments log at debug, everything else at info.
func New(appEnv string) *slog.Logger {
	var level slog.Level
	switch appEnv {
	case "local", "dev":
		level = slog.LevelDebug
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

type ctxKey struct{}

// With stores a logger in context, typically one already carrying
// request-scoped attributes.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From returns the context logger, or slog.Default() when none was stored.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// ShutdownFlush exists so main can flush on shutdown if the handler ever
// becomes buffered; the JSON handler writes through, so this is a no-op.
func ShutdownFlush(_ context.Context, _ time.Duration) error { return nil }
