// Package logging builds the structured logger used across plugeval.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config describes how the logger should behave.
type Config struct {
	// Level is debug, info, warn or error. Unknown values mean info.
	Level string
	// Format is "text" or "json". Defaults to text.
	Format string
	// Outputs lists destinations: "stdout", "stderr" or a file path.
	// Defaults to stderr.
	Outputs []string
	// AddSource records the calling source location.
	AddSource bool
}

// Logger is a slog logger together with the files it writes to.
type Logger struct {
	*slog.Logger
	closers []io.Closer
}

// New builds a logger from cfg.
func New(cfg Config) (*Logger, error) {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level), AddSource: cfg.AddSource}

	writers := make([]io.Writer, 0, len(cfg.Outputs))
	var closers []io.Closer
	if len(cfg.Outputs) == 0 {
		writers = append(writers, os.Stderr)
	}
	for _, out := range cfg.Outputs {
		w, c, err := openWriter(out)
		if err != nil {
			closeAll(closers)
			return nil, err
		}
		if c != nil {
			closers = append(closers, c)
		}
		writers = append(writers, w)
	}

	var w io.Writer
	if len(writers) == 1 {
		w = writers[0]
	} else {
		w = io.MultiWriter(writers...)
	}

	return &Logger{Logger: slog.New(NewHandler(w, cfg.Format, opts)), closers: closers}, nil
}

// NewHandler returns a text or JSON handler for format.
func NewHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Close closes any log files.
func (l *Logger) Close() error {
	err := closeAll(l.closers)
	l.closers = nil
	return err
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// WithComponent returns a child logger tagged with a component name.
func WithComponent(l *slog.Logger, component string) *slog.Logger {
	return l.With("component", component)
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func openWriter(path string) (io.Writer, io.Closer, error) {
	switch strings.ToLower(path) {
	case "stdout":
		return os.Stdout, nil, nil
	case "stderr", "":
		return os.Stderr, nil, nil
	default:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file %s: %w", path, err)
		}
		return file, file, nil
	}
}

func closeAll(closers []io.Closer) error {
	var err error
	for _, c := range closers {
		err = errors.Join(err, c.Close())
	}
	return err
}
