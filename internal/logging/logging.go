// Package logging provides structured logging using slog.
// Logs are written as JSON to the configured writer (stderr by default).
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	// defaultLogger is the package-level logger.
	defaultLogger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	// mu protects concurrent access to the logger.
	mu sync.RWMutex
)

// Init configures the package-level logger. If w is nil, output goes to
// stderr. Level accepts "debug", "info", "warn", "error"; anything else
// defaults to info.
func Init(w io.Writer, level string) {
	mu.Lock()
	defer mu.Unlock()

	if w == nil {
		w = os.Stderr
	}

	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	defaultLogger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// Disable routes all log output to io.Discard. Used by tests.
func Disable() {
	Init(io.Discard, "error")
}

func logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// Debug logs a debug message with key-value pairs.
func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}

// Info logs an info message with key-value pairs.
func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

// Warn logs a warning message with key-value pairs.
func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

// Error logs an error message with key-value pairs.
func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}
