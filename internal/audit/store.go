// internal/audit/store.go
// Package audit persists one immutable JSON record per agent invocation.
// Records are append-only files named by microsecond timestamp; retention
// and rotation are handled outside the process.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Record captures the terminal outcome of one agent invocation.
type Record struct {
	Timestamp      time.Time `json:"timestamp"`
	TargetPath     string    `json:"target_path"`
	PromptName     string    `json:"prompt_name"`
	QueryLength    int       `json:"query_length"`
	ResponseLength int       `json:"response_length"`
	StopReason     string    `json:"stop_reason"`
	RawText        string    `json:"raw_text"`
	Success        bool      `json:"success"`
	Error          string    `json:"error,omitempty"`
}

// Store writes records to a directory, one file per invocation.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates the directory if needed and returns a store over it.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("audit directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Write persists the record and returns the path of the file it landed in.
// Filenames carry the record's microsecond timestamp; when two records share
// a microsecond the later one gets a numeric suffix so neither is lost.
func (s *Store) Write(rec Record) (string, error) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding audit record: %w", err)
	}

	base := fmt.Sprintf("response_%s_%06d",
		rec.Timestamp.Format("20060102_150405"),
		rec.Timestamp.Nanosecond()/1000)

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, base+".json")
	for n := 1; ; n++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			_, werr := f.Write(data)
			cerr := f.Close()
			if werr != nil {
				return "", fmt.Errorf("writing audit record: %w", werr)
			}
			if cerr != nil {
				return "", fmt.Errorf("closing audit record: %w", cerr)
			}
			return path, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("creating audit record: %w", err)
		}
		path = filepath.Join(s.dir, fmt.Sprintf("%s_%d.json", base, n))
	}
}

// List returns the paths of all records in the store, oldest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading audit directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "response_") || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		out = append(out, filepath.Join(s.dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// Read loads one record back from disk.
func (s *Store) Read(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading audit record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding audit record %s: %w", path, err)
	}
	return &rec, nil
}
