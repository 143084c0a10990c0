// Package logging sets up the structured JSON log written next to the data.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the log file created inside the data directory.
const FileName = "eji.log"

// ParseLevel maps debug, info, warn and error onto slog levels.
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

// New returns a JSON logger writing to w.
func New(w io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     ParseLevel(level),
		AddSource: true, // Include file:line information
	})
	return slog.New(handler)
}

// Setup opens <dataDir>/eji.log for appending and returns a logger on it.
// The returned close func flushes nothing but releases the file.
func Setup(dataDir, level string) (*slog.Logger, func() error, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	logPath := filepath.Join(dataDir, FileName)
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := New(logFile, level)
	logger.Info("Application started", "data_dir", dataDir, "level", ParseLevel(level).String())
	return logger, logFile.Close, nil
}

// Discard is a logger that drops everything, for tests and library callers
// that pass no logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
