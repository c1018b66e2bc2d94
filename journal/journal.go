// Package journal records posts that could not be published.
package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// DefaultPath is the journal file used when none is configured.
const DefaultPath = "failed_tweets.jsonl"

// Entry is one failed publish. Status is 0 when no HTTP response was received.
type Entry struct {
	Time     time.Time `json:"time"`
	Text     string    `json:"text"`
	Error    string    `json:"error"`
	Status   int       `json:"status"`
	Attempts int       `json:"attempts"`
}

// Writer stores failure entries.
type Writer interface {
	Record(ctx context.Context, e Entry) error
}

// File appends entries to a file as JSON lines.
type File struct {
	path string
	mu   sync.Mutex
}

func NewFile(path string) *File {
	if path == "" {
		path = DefaultPath
	}
	return &File{path: path}
}

func (f *File) Path() string {
	return f.path
}

// Record appends e as a single line.
func (f *File) Record(_ context.Context, e Entry) error {
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode journal entry: %w", err)
	}
	line = append(line, '\n')

	f.mu.Lock()
	defer f.mu.Unlock()

	fh, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open journal %s: %w", f.path, err)
	}
	if _, err := fh.Write(line); err != nil {
		_ = fh.Close()
		return fmt.Errorf("failed to write journal %s: %w", f.path, err)
	}
	return fh.Close()
}

// Multi fans an entry out to every writer. All writers are tried; their
// errors are joined.
type Multi []Writer

func (m Multi) Record(ctx context.Context, e Entry) error {
	var errs []error
	for _, w := range m {
		if w == nil {
			continue
		}
		if err := w.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ReadFile loads every entry of a journal file.
func ReadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal %s: %w", path, err)
	}
	var entries []Entry
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return entries, fmt.Errorf("failed to decode journal %s: %w", path, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
