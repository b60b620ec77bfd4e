package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestInit(t *testing.T) {
	saved := slog.Default()
	defer slog.SetDefault(saved)

	for _, cfg := range []*Config{
		{Level: "debug", Format: "text"},
		{Level: "info", Format: "json"},
		{Level: "invalid", Format: "text"},
	} {
		Init(cfg)
		slog.Info("test message")
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, &Config{Level: "warn", Format: "json"})

	log.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("Expected info to be filtered at warn level, got %s", buf.String())
	}

	log.Warn("kept", "contract_id", 7)
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "kept" {
		t.Errorf("Expected msg kept, got %v", entry["msg"])
	}
	if entry["contract_id"] != float64(7) {
		t.Errorf("Expected contract_id 7, got %v", entry["contract_id"])
	}
}

func TestWithContext(t *testing.T) {
	saved := slog.Default()
	defer slog.SetDefault(saved)

	var buf bytes.Buffer
	slog.SetDefault(New(&buf, &Config{Level: "debug", Format: "text"}))

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UsernameKey, "admin@example.com")
	ctx = WithWaFrom(ctx, "51999888777")

	WithContext(ctx).Info("hello")

	out := buf.String()
	for _, want := range []string{"request_id=req-1", "username=admin@example.com", "wa_from=51999888777"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in %q", want, out)
		}
	}
}

func TestWithContextEmpty(t *testing.T) {
	saved := slog.Default()
	defer slog.SetDefault(saved)

	var buf bytes.Buffer
	slog.SetDefault(New(&buf, &Config{Level: "info", Format: "text"}))

	WithContext(context.Background()).Info("plain")
	if strings.Contains(buf.String(), "request_id") || strings.Contains(buf.String(), "wa_from") {
		t.Errorf("Expected no context attributes, got %q", buf.String())
	}
}

func TestLogFunctions(t *testing.T) {
	saved := slog.Default()
	defer slog.SetDefault(saved)

	var buf bytes.Buffer
	slog.SetDefault(New(&buf, &Config{Level: "debug", Format: "text"}))

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-123")

	tests := []struct {
		name string
		log  func(context.Context, string, ...any)
	}{
		{"info message", Info},
		{"debug message", Debug},
		{"warn message", Warn},
		{"error message", Error},
	}

	for _, tt := range tests {
		buf.Reset()
		tt.log(ctx, tt.name, "key", "value")
		if !strings.Contains(buf.String(), tt.name) {
			t.Errorf("Expected %q in log, got %q", tt.name, buf.String())
		}
		if !strings.Contains(buf.String(), "request_id=req-123") {
			t.Errorf("Expected request id in log, got %q", buf.String())
		}
	}
}
