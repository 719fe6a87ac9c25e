package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseLevel(tc.in))
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "info")

	l.Debug("hidden")
	l.Info("shown", "idx", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "idx=3")
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "debug").With("component", "counter")

	l.Warn("tx failed")

	assert.Contains(t, buf.String(), "component=counter")
	assert.Contains(t, buf.String(), "level=WARN")
}
