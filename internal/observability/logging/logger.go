// Package logging builds the JSON loggers shared by the api, worker, and
// ingest binaries. Every log line carries the emitting service name.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// NewJSONLogger returns a stdout JSON logger tagged with the service name.
// Unrecognized levels fall back to info.
func NewJSONLogger(service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler).With("service", service)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
