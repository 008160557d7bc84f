package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decoding %q: %v", line, err)
		}
		lines = append(lines, entry)
	}
	return lines
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screener.log")

	log, err := New(true, false, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Debug("generation request")
	log.Info("stage changed", SessionFields("abc", "collect_email", 2, 10)...)
	_ = log.Sync()

	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("expected debug to be filtered out, got %d lines", len(lines))
	}

	entry := lines[0]
	if entry["step"] != "stage changed" {
		t.Fatalf("expected message under step key, got %v", entry)
	}
	if entry[FieldSession] != "abc" || entry[FieldStage] != "collect_email" || entry[FieldProgress] != "2/10" {
		t.Fatalf("unexpected session fields: %v", entry)
	}
	if entry["level"] != "info" {
		t.Fatalf("expected lowercase level, got %v", entry["level"])
	}
}

func TestNewDebugLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screener.log")

	log, err := New(true, true, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Debug("generation request")
	_ = log.Sync()

	if lines := readLines(t, path); len(lines) != 1 || lines[0]["level"] != "debug" {
		t.Fatalf("expected one debug line, got %v", lines)
	}
}

func TestNewDefaultsToStderr(t *testing.T) {
	if _, err := New(false, false, "  "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
