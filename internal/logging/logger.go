package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog with the key/value logging methods used across the service
type Logger struct {
	logger *slog.Logger
}

// New creates a Logger configured from LOG_LEVEL and LOG_FORMAT
func New() *Logger {
	level := ParseLevel(os.Getenv("LOG_LEVEL"))
	json := strings.EqualFold(os.Getenv("LOG_FORMAT"), "json")
	return NewWithWriter(os.Stdout, level, json)
}

// NewWithWriter creates a Logger writing to w at the given level
// json selects the JSON handler instead of the text one
func NewWithWriter(w io.Writer, level slog.Level, json bool) *Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{logger: slog.New(handler)}
}

// Discard returns a Logger that drops every record
func Discard() *Logger {
	return NewWithWriter(io.Discard, slog.LevelError+4, false)
}

// ParseLevel converts a level name to a slog.Level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// With returns a Logger that adds the key/value pairs to every record
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{logger: l.logger.With(keysAndValues...)}
}

// Debug logs a debug message with structured key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(slog.LevelDebug, msg, keysAndValues...)
}

// Info logs an informational message with structured key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log(slog.LevelInfo, msg, keysAndValues...)
}

// Warn logs a warning with structured key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(slog.LevelWarn, msg, keysAndValues...)
}

// Error logs an error message with structured key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.log(slog.LevelError, msg, keysAndValues...)
}

// log drops a trailing key without a value, matching the old formatter
func (l *Logger) log(level slog.Level, msg string, keysAndValues ...interface{}) {
	if len(keysAndValues)%2 != 0 {
		keysAndValues = keysAndValues[:len(keysAndValues)-1]
	}
	l.logger.Log(context.Background(), level, msg, keysAndValues...)
}
