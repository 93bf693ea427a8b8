package logging

import (
	"log/slog"
	"os"
	"strings"
)

// InitLogger installs the process-wide slog default handler.
// level: debug, info, warn, error (unknown values fall back to info).
// format: "json" for machine-readable output, anything else is text.
func InitLogger(level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithIdentity returns a logger carrying the username and role fields.
func WithIdentity(username, role string) *slog.Logger {
	return slog.Default().With("username", username, "role", role)
}

// WithError returns a logger carrying the error field.
func WithError(err error) *slog.Logger {
	return slog.Default().With("error", err)
}
