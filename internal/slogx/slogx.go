package slogx

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOptions configures the rotating log file.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
}

// ParseLevel converts string (debug|info|warn|error) to slog.Level. Unknown → info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewDefault creates a logger writing to stderr with the given level string.
func NewDefault(level string) *slog.Logger {
	return NewWriter(os.Stderr, level)
}

// NewWriter creates a text logger on w.
func NewWriter(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

// New creates a logger writing to stderr and, when f.Path is set, also to a
// rotating file. The returned closer releases the file.
func New(level string, f FileOptions) (*slog.Logger, io.Closer) {
	if f.Path == "" {
		return NewDefault(level), io.NopCloser(nil)
	}
	if f.MaxSizeMB <= 0 {
		f.MaxSizeMB = 100
	}
	file := &lumberjack.Logger{
		Filename:   f.Path,
		MaxSize:    f.MaxSizeMB,
		MaxAge:     f.MaxAgeDays,
		MaxBackups: f.MaxBackups,
		Compress:   f.Compress,
	}
	return NewWriter(io.MultiWriter(os.Stderr, file), level), file
}
