// Package transcript archives finished intake sessions as JSON files named
// after the session id.
package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spigell/screener/internal/intake"
)

const extension = ".json"

// Record is the archived form of a session.
type Record struct {
	SavedAt time.Time       `json:"saved_at"`
	Summary string          `json:"summary"`
	Session intake.Snapshot `json:"session"`
}

// Path returns where the transcript of session id lives in dir.
func Path(dir, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("invalid session id %q", id)
	}
	return filepath.Join(dir, id+extension), nil
}

// Save writes the session snapshot to dir, replacing an earlier transcript
// of the same session.
func Save(dir string, s *intake.Session, now time.Time) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("transcripts directory is not set")
	}

	path, err := Path(dir, s.ID())
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating transcripts directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	record := Record{
		SavedAt: now.UTC(),
		Summary: s.Summary(),
		Session: s.Snapshot(),
	}
	if err := enc.Encode(record); err != nil {
		return "", fmt.Errorf("encoding transcript: %w", err)
	}

	return path, nil
}

// Load reads a transcript written by Save.
func Load(path string) (*Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var record Record
	if err := json.NewDecoder(file).Decode(&record); err != nil {
		return nil, fmt.Errorf("decoding transcript %q: %w", path, err)
	}

	return &record, nil
}

// Resume restores the archived session so the conversation can continue.
func (r *Record) Resume(cfg intake.Config) (*intake.Session, error) {
	return intake.Restore(r.Session, cfg)
}
