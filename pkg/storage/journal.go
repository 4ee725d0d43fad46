package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/vjranagit/engagesim/pkg/types"
)

const journalFile = "evaluations.jsonl"

// Journal appends evaluation reports as JSON lines
type Journal struct {
	path   string
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
}

// OpenJournal opens the journal under dataPath for appending
func OpenJournal(dataPath string) (*Journal, error) {
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	path := filepath.Join(dataPath, journalFile)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	return &Journal{
		path:   path,
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

// Append writes one report and syncs it to disk
func (j *Journal) Append(report types.Report) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if _, err := j.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write to journal: %w", err)
	}
	if err := j.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	if err := j.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush journal: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync journal: %w", err)
	}
	return nil
}

// Close closes the journal
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.writer.Flush(); err != nil {
		return err
	}
	return j.file.Close()
}

// ReplayJournal calls handler for every report under dataPath, oldest
// first. A missing journal replays nothing.
func ReplayJournal(dataPath string, handler func(types.Report) error) error {
	file, err := os.Open(filepath.Join(dataPath, journalFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var report types.Report
		if err := json.Unmarshal(scanner.Bytes(), &report); err != nil {
			return fmt.Errorf("failed to unmarshal journal entry: %w", err)
		}
		if err := handler(report); err != nil {
			return fmt.Errorf("failed to replay report %s: %w", report.RunID, err)
		}
	}

	return scanner.Err()
}
