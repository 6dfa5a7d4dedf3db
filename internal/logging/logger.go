// Package logging configures JSONL logging with size-based rotation.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Runtime bundles the configured logger and its rotating file sink.
type Runtime struct {
	Logger *slog.Logger
	Path   string
	closer io.Closer
}

// Close flushes and closes the logger output sink.
func (r Runtime) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Options tunes the log sink. Zero values pick the defaults.
type Options struct {
	Path       string
	Level      slog.Level
	MaxSizeMB  int
	MaxBackups int
	// Mirror also writes every record to this writer (the server's stderr).
	Mirror io.Writer
}

// New builds an info-level JSONL logger at the resolved state path.
func New() (Runtime, error) {
	return NewWithOptions(Options{Level: slog.LevelInfo})
}

// NewWithOptions builds a JSONL logger backed by a rotating file.
func NewWithOptions(opts Options) (Runtime, error) {
	path := opts.Path
	if path == "" {
		resolved, err := resolveLogPath()
		if err != nil {
			return Runtime{}, err
		}
		path = resolved
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return Runtime{}, err
	}

	sink := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    orDefault(opts.MaxSizeMB, 10),
		MaxBackups: orDefault(opts.MaxBackups, 3),
		Compress:   true,
	}

	var out io.Writer = sink
	if opts.Mirror != nil {
		out = io.MultiWriter(sink, opts.Mirror)
	}

	h := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: opts.Level})
	return Runtime{Logger: slog.New(h), Path: path, closer: sink}, nil
}

// ParseLevel maps debug/info/warn/error (case-insensitive) to a slog level.
func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", raw)
	}
}

func orDefault(v int, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

// resolveLogPath selects XDG_STATE_HOME when available, otherwise ~/.local/state.
func resolveLogPath() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, "openspeech", "log.jsonl"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "openspeech", "log.jsonl"), nil
}
