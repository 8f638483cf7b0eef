package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewTextHandler(t *testing.T) {
	t.Setenv("GO_ENV", "")
	var buf bytes.Buffer
	l := New(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	l.Info("hello", "component", "test")
	if !strings.Contains(buf.String(), "component=test") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestNewJSONHandler(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	var buf bytes.Buffer
	l := New(&buf, nil)
	l.Info("hello")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}
