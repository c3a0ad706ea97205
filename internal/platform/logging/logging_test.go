package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	if ParseLevel("DEBUG") != slog.LevelDebug {
		t.Fatal("expected debug level")
	}
	if ParseLevel("warning") != slog.LevelWarn {
		t.Fatal("expected warn level")
	}
	if ParseLevel("nonsense") != slog.LevelInfo {
		t.Fatal("expected info fallback")
	}
}

func TestNewProductionEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "production")
	logger.Info("submission stored", "evaluationId", 7)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "submission stored" {
		t.Fatalf("unexpected message: %v", entry["msg"])
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "development")
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatal("expected info line to be filtered")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Fatal("expected warn line to be written")
	}
}
