// Package logging builds the slog logger used by the command-line tool.
package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logging configuration.
type Config struct {
	Level      string // Log level: debug, info, warn, error
	FilePath   string // Path to log file (empty = stderr only)
	MaxSizeMB  int    // Max size in MB before rotation
	MaxBackups int    // Max number of old log files to retain
	MaxAgeDays int    // Max age in days to retain old log files
	Compress   bool   // Whether to compress rotated files
}

// DefaultConfig returns sensible defaults for logging.
func DefaultConfig() Config {
	return Config{
		Level:      "warn",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
		Compress:   true,
	}
}

// Setup builds a logger for cfg. Log files are rotated with lumberjack and
// always written as JSON. Without a file, logs go to stderr: as text when
// stderr is a terminal, as JSON otherwise.
//
// The returned cleanup function closes the log file and must be called on
// shutdown.
func Setup(cfg Config) (*slog.Logger, func() error, error) {
	return setup(cfg, os.Stderr)
}

func setup(cfg Config, stderr *os.File) (*slog.Logger, func() error, error) {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	}

	if cfg.FilePath != "" {
		// Ensure directory exists
		dir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}

		lj := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}
		return slog.New(slog.NewJSONHandler(lj, opts)), lj.Close, nil
	}

	noop := func() error { return nil }
	if term.IsTerminal(int(stderr.Fd())) {
		return slog.New(slog.NewTextHandler(stderr, opts)), noop, nil
	}
	return slog.New(slog.NewJSONHandler(stderr, opts)), noop, nil
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
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
