package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{
		Level:  WARN,
		Format: TEXT,
		Output: &buf,
	})

	log.Debug("debug message")
	log.Info("info message")
	if buf.Len() != 0 {
		t.Errorf("Expected no output below WARN, got %q", buf.String())
	}

	log.Warn("warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Errorf("Expected warn message in output, got %q", buf.String())
	}

	buf.Reset()
	log.Error("error message")
	if !strings.Contains(buf.String(), "[ERROR]") {
		t.Errorf("Expected ERROR level marker, got %q", buf.String())
	}
}

func TestWithField(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{
		Level:  INFO,
		Format: TEXT,
		Output: &buf,
	})

	log.WithField("provider", "openai").Info("dispatching request")

	out := buf.String()
	if !strings.Contains(out, "provider=openai") {
		t.Errorf("Expected field in output, got %q", out)
	}

	// Base logger must be unaffected by derived fields
	buf.Reset()
	log.Info("plain message")
	if strings.Contains(buf.String(), "provider=openai") {
		t.Errorf("Base logger leaked derived field: %q", buf.String())
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{
		Level:  INFO,
		Format: TEXT,
		Output: &buf,
	})

	log.WithContext("engine", "transport").Info("attempt failed")

	if !strings.Contains(buf.String(), "[engine.transport]") {
		t.Errorf("Expected context path in output, got %q", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{
		Level:  INFO,
		Format: JSON,
		Output: &buf,
	})

	log.Info("queue drained")

	out := buf.String()
	if !strings.HasPrefix(out, "{") || !strings.Contains(out, "\"message\":\"queue drained\"") {
		t.Errorf("Expected JSON output, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warn", WARN},
		{"error", ERROR},
		{"fatal", FATAL},
		{"disabled", DISABLED},
		{"bogus", INFO},
		{"", INFO},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}
