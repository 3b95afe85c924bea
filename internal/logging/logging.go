// Package logging configures the process-wide slog logger. Short-lived
// commands log as text to stderr; watch sessions can additionally log as
// JSON to a size-rotated file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config describes file logging for a long-running session.
type Config struct {
	// Level is the minimum level to record: debug, info, warn, or error.
	Level string
	// FilePath locates the log file; empty disables file logging.
	FilePath string
	// MaxSizeMB caps the file size before rotation kicks in.
	MaxSizeMB int
	// MaxFiles caps how many rotated files survive.
	MaxFiles int
	// WriteToStderr tees every record to stderr as well.
	WriteToStderr bool
}

// DefaultConfig returns the watch session defaults: info level, 10 MB
// files, 5 rotations, teed to stderr.
func DefaultConfig() Config {
	return Config{
		Level:         "info",
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: true,
	}
}

// New returns a text logger writing to w at the given level. This is the
// logger every command starts with.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
}

// Setup opens the rotating log file and returns a JSON logger over it,
// plus the cleanup that flushes and closes the file.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	rw, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}

	var dst io.Writer = rw
	if cfg.WriteToStderr {
		dst = io.MultiWriter(rw, os.Stderr)
	}

	logger := slog.New(slog.NewJSONHandler(dst, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}))

	return logger, func() {
		_ = rw.Sync()
		_ = rw.Close()
	}, nil
}

// DefaultLogDir returns ~/.globwalk/logs, or a temp-dir fallback when no
// home directory is resolvable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".globwalk", "logs")
	}
	return filepath.Join(home, ".globwalk", "logs")
}

// DefaultLogPath returns the default watch session log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "watch.log")
}

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// parseLevel maps a level name to its slog.Level. Unknown names fall back
// to warn.
func parseLevel(level string) slog.Level {
	if l, ok := levelNames[strings.ToLower(level)]; ok {
		return l
	}
	return slog.LevelWarn
}
