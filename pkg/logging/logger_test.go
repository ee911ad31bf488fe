package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{
		Level:       LevelDebug,
		ServiceName: "test-service",
		JSONFormat:  true,
		Output:      &buf,
	})

	log.Info("hello", F("meeting_id", "m-1"), F("attempts", 3))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if entry["message"] != "hello" {
		t.Errorf("message = %v, want hello", entry["message"])
	}
	if entry["service_name"] != "test-service" {
		t.Errorf("service_name = %v, want test-service", entry["service_name"])
	}
	if entry["meeting_id"] != "m-1" {
		t.Errorf("meeting_id = %v, want m-1", entry["meeting_id"])
	}
	if entry["attempts"] != float64(3) {
		t.Errorf("attempts = %v, want 3", entry["attempts"])
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{
		Level:      LevelWarn,
		JSONFormat: true,
		Output:     &buf,
	})

	log.Debug("debug msg")
	log.Info("info msg")
	if buf.Len() != 0 {
		t.Fatalf("expected debug/info suppressed at warn level, got: %s", buf.String())
	}

	log.Warn("warn msg")
	if !strings.Contains(buf.String(), "warn msg") {
		t.Errorf("warn message missing from output: %s", buf.String())
	}
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{
		Level:      LevelInfo,
		JSONFormat: true,
		Output:     &buf,
	})

	child := log.With(F("component", "poller"), F("interval", 30*time.Second))
	child.Info("cycle complete")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["component"] != "poller" {
		t.Errorf("component = %v, want poller", entry["component"])
	}
}

func TestErrField(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{
		Level:      LevelInfo,
		JSONFormat: true,
		Output:     &buf,
	})

	log.Error("poll failed", Err(errors.New("connection refused")))

	if !strings.Contains(buf.String(), "connection refused") {
		t.Errorf("error detail missing from output: %s", buf.String())
	}
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()

	// Must not panic and With must keep returning a usable logger.
	log.Debug("a")
	log.Info("b")
	log.Warn("c")
	log.With(F("k", "v")).Error("d", Err(errors.New("x")))
}
