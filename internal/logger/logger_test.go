package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/attendance/internal/config"
)

func TestInit_LevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	closeFn, err := initWith(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()

	log.Info("hidden")
	log.WithField("store", "ledger").Warn("visible")

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(out), &entry); err != nil {
		t.Fatalf("expected a JSON log line, got %q", out)
	}
	if entry["msg"] != "visible" || entry["store"] != "ledger" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestInit_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	if _, err := initWith(config.LogConfig{Level: "loud"}, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if log.GetLevel() != log.InfoLevel {
		t.Errorf("level = %v, want info", log.GetLevel())
	}
}

func TestInit_UnknownFormat(t *testing.T) {
	if _, err := initWith(config.LogConfig{Level: "info", Format: "xml"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestInit_FileTee(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "attendance.log")
	var buf bytes.Buffer
	closeFn, err := initWith(config.LogConfig{Level: "info", Format: "text", File: path}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Info("to both")
	if err := closeFn(); err != nil {
		t.Fatal(err)
	}
	log.SetOutput(os.Stderr)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "to both") || !strings.Contains(buf.String(), "to both") {
		t.Error("expected message in both file and stderr writer")
	}
}
