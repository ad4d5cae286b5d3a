package config

import (
	"log/slog"
	"os"
	"strings"
)

// EnvLogLevel selects the log level when --verbose is not given.
const EnvLogLevel = "DOCSITE_LOG_LEVEL"

// LogLevel resolves the effective slog level.
func LogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogLevel))) {
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
