package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestNewLoggerToJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLoggerTo(&Config{Level: InfoLevel, Format: JSONFormat}, &buf)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	log.WithField("contracts", 42).Info("loaded")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "loaded" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["contracts"] != float64(42) {
		t.Errorf("contracts field = %v", entry["contracts"])
	}
}

func TestWithFieldsChainAccumulates(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLoggerTo(&Config{Level: DebugLevel, Format: JSONFormat}, &buf)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	log.WithComponent("matcher").
		WithFields(Fields{"strategy": "EXACT_CONTRACT"}).
		WithField("line", 7).
		Debug("matched")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["component"] != "matcher" {
		t.Errorf("component lost in chain: %v", entry)
	}
	if entry["strategy"] != "EXACT_CONTRACT" {
		t.Errorf("strategy lost in chain: %v", entry)
	}
	if entry["line"] != float64(7) {
		t.Errorf("line lost in chain: %v", entry)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLoggerTo(&Config{Level: WarnLevel, Format: TextFormat}, &buf)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	log.Info("should be suppressed")
	if buf.Len() != 0 {
		t.Errorf("info should not pass a warn-level logger: %s", buf.String())
	}

	log.Warn("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Errorf("warn should pass: %s", buf.String())
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLoggerTo(&Config{Level: InfoLevel, Format: JSONFormat}, &buf)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	log.WithError(fmt.Errorf("boom")).Error("failed")

	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("error field missing: %s", buf.String())
	}
}

func TestInvalidLevel(t *testing.T) {
	if _, err := NewLoggerTo(&Config{Level: "loud", Format: TextFormat}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestGlobalLogger(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	var buf bytes.Buffer
	log, err := NewLoggerTo(&Config{Level: InfoLevel, Format: JSONFormat}, &buf)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	SetGlobalLogger(log)

	GetGlobalLogger().Info("through the global")
	if !strings.Contains(buf.String(), "through the global") {
		t.Errorf("global logger not routed: %s", buf.String())
	}
}
