// Package logger provides EOSS's structured logging primitives.
//
// Unlike a single process-wide logger, EOSS opens one Logger instance per
// component (eoss.log, mds_client.log, object_client.log, access.log) under
// LOGGING_PATH, mirroring the original implementation's per-module
// eoss.logger.Logger(name, file) convention. Each instance wraps a log/slog
// logger so the output stays structured and level-filterable.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level mirrors the four levels the original implementation logs at.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return LevelDebug
	case "WARN":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Config controls how a Logger instance is constructed.
type Config struct {
	// Level is the minimum level that is emitted: DEBUG, INFO, WARN, ERROR.
	Level string
	// Format selects "text" (colorized when the destination is a terminal)
	// or "json".
	Format string
}

// Logger is a single named, file-backed logger.
type Logger struct {
	name    string
	out     io.Writer
	closer  io.Closer
	slogger *slog.Logger
}

// New opens (creating if necessary) the log file at dir/filename and returns
// a Logger that writes to it using cfg's level and format.
func New(dir, filename, name string, cfg Config) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create logging directory %q: %w", dir, err)
	}

	path := dir + string(os.PathSeparator) + filename
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %q: %w", path, err)
	}

	return newFromWriter(f, f, name, cfg), nil
}

// NewWithWriter builds a Logger over an arbitrary writer (stdout, a test
// buffer, ...) without taking ownership of closing it.
func NewWithWriter(w io.Writer, name string, cfg Config) *Logger {
	return newFromWriter(w, nil, name, cfg)
}

func newFromWriter(w io.Writer, closer io.Closer, name string, cfg Config) *Logger {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level.slogLevel()}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		useColor := false
		if f, ok := w.(*os.File); ok {
			useColor = isTerminal(f.Fd())
		}
		handler = NewColorTextHandler(w, opts, useColor)
	}

	return &Logger{
		name:    name,
		out:     w,
		closer:  closer,
		slogger: slog.New(handler).With("logger", name),
	}
}

func (l *Logger) Debug(msg string, args ...any) { l.slogger.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slogger.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slogger.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slogger.Error(msg, args...) }

// Exception logs msg at error level together with the error's text, matching
// the original logger.exception() convenience call. Extra key-value args are
// appended the same way Error's are.
func (l *Logger) Exception(msg string, err error, args ...any) {
	l.slogger.Error(msg, append([]any{"error", err}, args...)...)
}

// Close releases the underlying file, if this Logger owns one.
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// Raw writes a single preformatted line verbatim, used by the access logger
// whose line format is fixed by the access-log contract rather than by
// slog's key=value shape.
func (l *Logger) Raw(line string) {
	fmt.Fprintln(l.out, line)
}
