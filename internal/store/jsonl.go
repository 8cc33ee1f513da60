package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pagetrawl/pagetrawl/internal/model"
)

// JSONLWriter appends one JSON document per record to a file. The format
// is append-only and line-oriented so partial output from an interrupted
// session is still loadable line by line.
type JSONLWriter struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// OpenJSONL opens path for appending, creating it and its directory as
// needed.
func OpenJSONL(path string) (*JSONLWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open jsonl file: %w", err)
	}
	return &JSONLWriter{f: f, enc: json.NewEncoder(f)}, nil
}

// Persist implements Writer.
func (w *JSONLWriter) Persist(r model.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(r); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return nil
}

// Close syncs and closes the file.
func (w *JSONLWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.f.Sync(); err != nil {
		_ = w.f.Close()
		return fmt.Errorf("sync jsonl file: %w", err)
	}
	return w.f.Close()
}
