package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

const requestIDKey = "request_id"

var defaultLogger *slog.Logger

func init() {
	defaultLogger = newLogger(os.Stdout, slog.LevelDebug)
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: false,
	}))
}

// Init replaces the default logger. level is one of debug, info, warn, error;
// anything else falls back to info.
func Init(level string, w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	defaultLogger = newLogger(w, ParseLevel(level))
	slog.SetDefault(defaultLogger)
}

// ParseLevel maps a LOG_LEVEL string to a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type contextKey struct{}

var loggerKey = &contextKey{}

// FromContext returns the logger from context, or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return defaultLogger
	}
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return defaultLogger
}

// WithContext returns a new context that carries the given logger.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// WithRequestID returns a new context whose logger includes the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	l := FromContext(ctx).With(requestIDKey, id)
	return WithContext(ctx, l)
}

// With returns a context whose logger carries the extra key-value pairs.
func With(ctx context.Context, args ...interface{}) context.Context {
	return WithContext(ctx, FromContext(ctx).With(args...))
}

// Error logs with error level. args are alternating key-value pairs (e.g. "error", err).
func Error(ctx context.Context, message string, args ...interface{}) {
	FromContext(ctx).ErrorContext(ctx, message, args...)
}

// Info logs with info level. args are alternating key-value pairs.
func Info(ctx context.Context, message string, args ...interface{}) {
	FromContext(ctx).InfoContext(ctx, message, args...)
}

// Debug logs with debug level. args are alternating key-value pairs.
func Debug(ctx context.Context, message string, args ...interface{}) {
	FromContext(ctx).DebugContext(ctx, message, args...)
}

// Warn logs with warn level. args are alternating key-value pairs.
func Warn(ctx context.Context, message string, args ...interface{}) {
	FromContext(ctx).WarnContext(ctx, message, args...)
}
