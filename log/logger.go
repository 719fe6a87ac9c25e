package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger keeps the level-string API used across the node and the client and
// writes structured records through slog.
type Logger struct {
	Level string
	s     *slog.Logger
}

func NewLogger(level string) *Logger {
	return NewLoggerTo(os.Stderr, level)
}

// NewLoggerTo builds a Logger writing text records to w.
func NewLoggerTo(w io.Writer, level string) *Logger {
	lvl := ParseLevel(level)
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	return &Logger{Level: strings.ToLower(level), s: slog.New(h)}
}

// ParseLevel maps debug/info/warn/error to a slog level. Unknown values mean info.
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

// With returns a child logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Level: l.Level, s: l.s.With(args...)}
}

// Slog exposes the underlying slog logger.
func (l *Logger) Slog() *slog.Logger {
	return l.s
}

func (l *Logger) Info(msg string, args ...any) {
	l.s.Info(msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.s.Debug(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.s.Warn(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.s.Error(msg, args...)
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return NewLoggerTo(io.Discard, "error")
}
