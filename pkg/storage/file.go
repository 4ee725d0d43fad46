package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vjranagit/engagesim/pkg/metrics"
	"github.com/vjranagit/engagesim/pkg/types"
)

// FileStore keeps each dataset as a JSON array of records in
// <dir>/<name>.json. Timestamps are written as RFC 3339; legacy files with
// "2006-01-02 15:04" timestamps still load.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Store implements SeriesStore. The file is replaced atomically.
func (s *FileStore) Store(ctx context.Context, name string, records []types.CombinedRecord) (err error) {
	defer func() { metrics.RecordStore(BackendFile, "store", err) }()

	if err := validateName(name); err != nil {
		return err
	}
	if records == nil {
		records = []types.CombinedRecord{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write records: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// Load implements SeriesStore
func (s *FileStore) Load(ctx context.Context, name string) (records []types.CombinedRecord, err error) {
	defer func() { metrics.RecordStore(BackendFile, "load", err) }()

	if err := validateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	sortRecords(records)
	return records, nil
}

// List implements Lister
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(m), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Close implements SeriesStore
func (s *FileStore) Close() error {
	return nil
}
