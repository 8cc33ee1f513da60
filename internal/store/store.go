package store

import "github.com/pagetrawl/pagetrawl/internal/model"

// Writer persists accepted records. Implementations must tolerate being
// handed the same URL twice across sessions; the dedup gate catches
// duplicates within a session but a resumed run may replay the tail of
// an interrupted one.
type Writer interface {
	// Persist stores one record.
	Persist(r model.Record) error

	// Close flushes and releases the underlying resources.
	Close() error
}

// MultiWriter fans records out to several writers. The first error stops
// the fan-out; the orchestrator treats a persist failure as a failed
// target, so partial writes surface instead of silently diverging.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter combines writers into one.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Persist implements Writer.
func (m *MultiWriter) Persist(r model.Record) error {
	for _, w := range m.writers {
		if err := w.Persist(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every writer, returning the first error.
func (m *MultiWriter) Close() error {
	var first error
	for _, w := range m.writers {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
