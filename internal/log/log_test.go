package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewDefaultsToConsole(t *testing.T) {
	logger, err := New(Options{})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	logger.Info("hello")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Error("New() should reject an unknown level")
	}
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glint.log")

	logger, err := New(Options{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	logger.Info("frame dropped", zap.String("widget", "sidebar"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "frame dropped") || !strings.Contains(line, "sidebar") {
		t.Errorf("log line = %q", line)
	}
}

func TestLevelFiltersOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glint.log")

	logger, err := New(Options{Level: "error", File: path})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	logger.Debug("invisible")
	logger.Info("invisible")
	_ = logger.Sync()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "invisible") {
		t.Error("sub-error lines should be filtered")
	}
}
