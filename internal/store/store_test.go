package store

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pagetrawl/pagetrawl/internal/model"
)

func sampleRecord(url string) model.Record {
	return model.Record{
		URL:         url,
		Domain:      "example.com",
		Seed:        "https://example.com/",
		Depth:       1,
		Title:       "Sample",
		Text:        "some extracted text",
		Snippet:     "some extracted text",
		WordCount:   3,
		ContentHash: "abc123",
		FetchedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

func TestSQLiteStorePersist(t *testing.T) {
	t.Parallel()

	s, err := OpenSQLite(t.TempDir())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer s.Close() //nolint:errcheck

	if err := s.Persist(sampleRecord("https://example.com/a")); err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	if err := s.Persist(sampleRecord("https://example.com/b")); err != nil {
		t.Fatalf("persist failed: %v", err)
	}

	n, err := s.Count()
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}

	records, err := s.ByDomain("example.com")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Title != "Sample" || records[0].WordCount != 3 {
		t.Errorf("record round trip lost fields: %+v", records[0])
	}
}

func TestSQLiteStoreReplayIsNoOp(t *testing.T) {
	t.Parallel()

	s, err := OpenSQLite(t.TempDir())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer s.Close() //nolint:errcheck

	r := sampleRecord("https://example.com/a")
	if err := s.Persist(r); err != nil {
		t.Fatal(err)
	}
	// A resumed session may replay the tail of the interrupted one.
	if err := s.Persist(r); err != nil {
		t.Fatalf("replay persist errored: %v", err)
	}

	n, err := s.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("count after replay = %d, want 1", n)
	}
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := OpenSQLite(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Persist(sampleRecord("https://example.com/a")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := OpenSQLite(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close() //nolint:errcheck
	n, err := s2.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("count after reopen = %d, want 1", n)
	}
}

func TestJSONLWriter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "records.jsonl")
	w, err := OpenJSONL(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := w.Persist(sampleRecord("https://example.com/a")); err != nil {
		t.Fatal(err)
	}
	if err := w.Persist(sampleRecord("https://example.com/b")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close() //nolint:errcheck

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var r model.Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines+1, err)
		}
		lines++
	}
	if lines != 2 {
		t.Errorf("file holds %d lines, want 2", lines)
	}
}

func TestJSONLWriterAppendsAcrossSessions(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "records.jsonl")
	w, err := OpenJSONL(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Persist(sampleRecord("https://example.com/a")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	w2, err := OpenJSONL(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w2.Persist(sampleRecord("https://example.com/b")); err != nil {
		t.Fatal(err)
	}
	if err := w2.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(splitLines(data)); got != 2 {
		t.Errorf("file holds %d lines after reopen, want 2", got)
	}
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := OpenSQLite(dir)
	if err != nil {
		t.Fatal(err)
	}
	j, err := OpenJSONL(filepath.Join(dir, "records.jsonl"))
	if err != nil {
		t.Fatal(err)
	}

	var w Writer = NewMultiWriter(s, j)
	if err := w.Persist(sampleRecord("https://example.com/a")); err != nil {
		t.Fatalf("multi persist failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("multi close failed: %v", err)
	}
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, data[start:i])
			start = i + 1
		}
	}
	return lines
}
