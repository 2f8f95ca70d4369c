package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/wonny/georepute/backend/pkg/config"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestNew_SetsGlobalLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log := New(&config.Config{Env: "development", LogLevel: tt.level, LogFormat: "json"})
			if log == nil {
				t.Fatal("Expected logger to be created")
			}
			if zerolog.GlobalLevel() != tt.want {
				t.Errorf("Expected global level %v, got %v", tt.want, zerolog.GlobalLevel())
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"DEBUG", zerolog.DebugLevel},
		{"warning", zerolog.WarnLevel},
		{"fatal", zerolog.FatalLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.input); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestServiceAndComponentFields(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	log := newWithWriter(&buf, "staging").Component("s1_dcs")

	log.Info("computed")

	entry := decodeLine(t, &buf)
	if entry["service"] != ServiceName {
		t.Errorf("Expected service %q, got %v", ServiceName, entry["service"])
	}
	if entry["component"] != "s1_dcs" {
		t.Errorf("Expected component s1_dcs, got %v", entry["component"])
	}
	if entry["env"] != "staging" {
		t.Errorf("Expected env staging, got %v", entry["env"])
	}
}

func TestWithFieldsAndError(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	log := newWithWriter(&buf, "development")

	log.WithFields(map[string]interface{}{
		"quote_id":    "q-1",
		"final_score": 42,
	}).WithError(errors.New("stage dcs failed")).Error("create failed")

	entry := decodeLine(t, &buf)
	if entry["quote_id"] != "q-1" {
		t.Errorf("Expected quote_id q-1, got %v", entry["quote_id"])
	}
	if entry["final_score"] != float64(42) {
		t.Errorf("Expected final_score 42, got %v", entry["final_score"])
	}
	if entry["error"] != "stage dcs failed" {
		t.Errorf("Expected error field, got %v", entry["error"])
	}
	if entry["level"] != "error" {
		t.Errorf("Expected level error, got %v", entry["level"])
	}
}

func TestFormattedMethods(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	log := newWithWriter(&buf, "development")

	log.Warnf("retry attempt: %d", 3)

	entry := decodeLine(t, &buf)
	if entry["message"] != "retry attempt: 3" {
		t.Errorf("Expected formatted message, got %v", entry["message"])
	}
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	log.Info("discarded")
	log.Component("x").WithField("a", 1).Debug("discarded")
}

func TestNewConsole(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	log := NewConsole(&buf, "debug")
	log.Component("compute").Debug("pipeline ran")

	out := buf.String()
	if !bytes.Contains(buf.Bytes(), []byte("pipeline ran")) {
		t.Errorf("Expected message in console output, got %q", out)
	}
	if json.Valid(buf.Bytes()) {
		t.Errorf("Expected human-readable output, got JSON %q", out)
	}
}
