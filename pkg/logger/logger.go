package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a structured logger tagged with the service name.
// Production writes JSON lines, everything else human readable text.
func New(service, appEnv, level string) *slog.Logger {
	return NewWithWriter(os.Stdout, service, appEnv, level)
}

func NewWithWriter(w io.Writer, service, appEnv, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var h slog.Handler
	if appEnv == "production" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("service", service)
}

// Discard is handy for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(s string) slog.Level {
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
