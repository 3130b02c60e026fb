// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// New returns a JSON logger for production and a text logger otherwise,
// writing to w at the given level.
func New(w io.Writer, level string, production bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if production {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything
// else is info.
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

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
