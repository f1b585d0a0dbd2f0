// Package logger owns the diagnostics side-channel. Allocator errors that are
// not part of a return contract (out-of-memory, invalid pointers, capacity
// exhaustion) are reported here as structured records on stderr.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// EnvLogAlloc enables per-operation debug records when set to any non-empty value.
const EnvLogAlloc = "XMALLOC_LOG_ALLOC"

// L is the global logger instance. It writes text records to stderr at Warn
// level until Init is called.
var L = New(Options{Enabled: true})

// Options configures a logger.
type Options struct {
	Enabled bool         // If false, all logging is discarded
	Writer  io.Writer    // Destination. Default: os.Stderr
	Level   slog.Leveler // Minimum log level. Default: LevelWarn, or LevelDebug when XMALLOC_LOG_ALLOC is set
	JSON    bool         // Emit JSON records instead of text
}

// New builds a logger from opts without touching L.
func New(opts Options) *slog.Logger {
	if !opts.Enabled {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	level := opts.Level
	if level == nil {
		level = slog.LevelWarn
		if os.Getenv(EnvLogAlloc) != "" {
			level = slog.LevelDebug
		}
	}

	hopts := &slog.HandlerOptions{Level: level}
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// Init replaces L. Call from main() before any allocator is created.
func Init(opts Options) {
	L = New(opts)
}

// Discard returns a logger that drops every record. Useful in tests that
// provoke diagnostics on purpose.
func Discard() *slog.Logger {
	return New(Options{})
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
