// Package logger provides test helpers for structured logging.
package logger

import (
	"log/slog"
	"os"
)

// NewTestLogger creates a logger for tests.
// It logs at WARN level to keep test output quiet.
// Set the TEST_DEBUG environment variable to enable debug logging in tests.
func NewTestLogger() *slog.Logger {
	cfg := Config{Level: slog.LevelWarn, Format: "text", Output: os.Stdout}
	if os.Getenv("TEST_DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	return NewLogger(cfg)
}
