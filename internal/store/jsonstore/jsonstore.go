package jsonstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/idilsaglam/records/internal/model"
)

// JSON-backed storage for the sandbox. Single file, human-readable, portable.
// Writes replace the file atomically; there is no cross-process locking.

// Load reads the records at path. A missing file is an empty collection.
func Load(path string) ([]model.Record, error) {
	b, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Record{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return []model.Record{}, nil
	}
	var recs []model.Record
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return recs, nil
}

// Save writes recs to path, creating the parent directory.
func Save(path string, recs []model.Record) error {
	if recs == nil {
		recs = []model.Record{}
	}
	b, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(append(b, '\n'))); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
