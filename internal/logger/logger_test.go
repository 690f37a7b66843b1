package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log %q: %v", buf.String(), err)
	}
	return entry
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.Info("test message")

	entry := decodeLine(t, &buf)
	for _, field := range []string{"timestamp", "level", "message"} {
		if _, ok := entry[field]; !ok {
			t.Errorf("JSON log missing required field %q", field)
		}
	}
	if entry["message"] != "test message" {
		t.Errorf("message = %v, want %q", entry["message"], "test message")
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
}

func TestLogger_WarnRenamed(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	NewWithWriter("debug", &buf).Warn("careful")

	if got := decodeLine(t, &buf)["level"]; got != "warning" {
		t.Errorf("level = %v, want warning", got)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("error", &buf)

	log.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info record written at error level: %s", buf.String())
	}
}

func TestLogger_Fields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.WithModule("webhook").
		WithRequestID("req-123").
		WithError(errors.New("boom")).
		WithFields(map[string]any{"entry_id": "ossd"}).
		Infof("resolved %d events", 3)

	entry := decodeLine(t, &buf)
	want := map[string]string{
		"module":     "webhook",
		"request_id": "req-123",
		"error":      "boom",
		"entry_id":   "ossd",
		"message":    "resolved 3 events",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %q", k, entry[k], v)
		}
	}
}

func TestLogger_ShutdownWithoutRemote(t *testing.T) {
	t.Parallel()
	log := NewWithWriter("info", &bytes.Buffer{})
	if err := log.Shutdown(t.Context()); err != nil {
		t.Errorf("Shutdown() = %v, want nil", err)
	}
	if log.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", log.Dropped())
	}

	var nilLogger *Logger
	if err := nilLogger.Shutdown(t.Context()); err != nil {
		t.Errorf("nil Shutdown() = %v, want nil", err)
	}
}
