// Package logger provides process-wide logging for sercha-voice.
// Warnings and errors are always written. Debug and info messages are only
// written when verbose mode is enabled via the --verbose flag.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu     sync.RWMutex
	level  = new(slog.LevelVar)
	output io.Writer = os.Stderr
	base   *slog.Logger
)

func init() {
	level.Set(slog.LevelWarn)
	rebuild()
}

// rebuild recreates the handler (caller must hold the write lock or be in init).
func rebuild() {
	base = slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: dropTime,
	}))
}

// dropTime removes the timestamp so CLI output stays compact and testable.
func dropTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	if v {
		level.Set(slog.LevelDebug)
		return
	}
	level.Set(slog.LevelWarn)
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	return level.Level() <= slog.LevelDebug
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// Slog returns the underlying structured logger.
// Long-running components use it for key/value logging.
func Slog() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// With returns a structured logger carrying the given attributes.
func With(args ...any) *slog.Logger {
	return Slog().With(args...)
}

// Debug logs a formatted message if verbose mode is enabled.
func Debug(format string, args ...any) {
	Slog().Debug(fmt.Sprintf(format, args...))
}

// Info logs a formatted informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	Slog().Info(fmt.Sprintf(format, args...))
}

// Warn logs a formatted warning.
func Warn(format string, args ...any) {
	Slog().Warn(fmt.Sprintf(format, args...))
}

// Error logs a formatted error.
func Error(format string, args ...any) {
	Slog().Error(fmt.Sprintf(format, args...))
}

// Section marks the start of a pipeline stage in verbose output.
func Section(name string) {
	Slog().Debug("section", "name", name)
}
