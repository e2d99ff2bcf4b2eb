package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

// DefaultContextProvider supplies the context for logging calls that do not
// take one.
var DefaultContextProvider = context.TODO

var defaultLog atomic.Pointer[Logger]

func init() {
	l := Make(os.Stderr)
	defaultLog.Store(&l)
}

// Default returns the process-wide logger.
func Default() Logger { return *defaultLog.Load() }

// SetDefault replaces the process-wide logger.
func SetDefault(l Logger) { defaultLog.Store(&l) }

// Config rebuilds the process-wide logger with opts applied on top of its
// current configuration, and returns the result.
func Config(opts ...Option) Logger {
	l := Default().Wrap(opts...)
	SetDefault(l)

	return l
}

// With returns the process-wide logger with attrs added.
func With(attrs ...slog.Attr) Logger { return Default().With(attrs...) }

// Trace logs msg at [LevelTrace] on the process-wide logger.
func Trace(msg string, attrs ...slog.Attr) {
	Default().emitSkip(DefaultContextProvider(), 2, LevelTrace, msg, attrs)
}

// Debug logs msg at [LevelDebug] on the process-wide logger.
func Debug(msg string, attrs ...slog.Attr) {
	Default().emitSkip(DefaultContextProvider(), 2, LevelDebug, msg, attrs)
}

// Info logs msg at [LevelInfo] on the process-wide logger.
func Info(msg string, attrs ...slog.Attr) {
	Default().emitSkip(DefaultContextProvider(), 2, LevelInfo, msg, attrs)
}

// Warn logs msg at [LevelWarn] on the process-wide logger.
func Warn(msg string, attrs ...slog.Attr) {
	Default().emitSkip(DefaultContextProvider(), 2, LevelWarn, msg, attrs)
}

// Error logs msg at [LevelError] on the process-wide logger.
func Error(msg string, attrs ...slog.Attr) {
	Default().emitSkip(DefaultContextProvider(), 2, LevelError, msg, attrs)
}

// ErrorContext logs msg at [LevelError] on the process-wide logger.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emitSkip(ctx, 2, LevelError, msg, attrs)
}
