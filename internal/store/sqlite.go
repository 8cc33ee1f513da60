package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pagetrawl/pagetrawl/internal/model"
)

// SQLiteStore persists records to a single SQLite database file per data
// directory. The URL is the primary key, so replaying a record after a
// resumed session is a no-op rather than a duplicate row.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// OpenSQLite opens or creates the record database under dataDir.
func OpenSQLite(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "pagetrawl.db")

	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite supports one writer; a bigger pool just queues on the lock.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// createTables creates the schema if it does not exist.
func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		url TEXT PRIMARY KEY,
		domain TEXT NOT NULL,
		seed TEXT NOT NULL,
		depth INTEGER NOT NULL,
		title TEXT,
		text TEXT,
		snippet TEXT,
		word_count INTEGER NOT NULL,
		content_hash TEXT NOT NULL,
		fetched_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_domain ON records(domain);
	CREATE INDEX IF NOT EXISTS idx_records_seed ON records(seed);
	CREATE INDEX IF NOT EXISTS idx_records_content_hash ON records(content_hash);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Persist implements Writer. Re-persisting a URL leaves the original row
// untouched.
func (s *SQLiteStore) Persist(r model.Record) error {
	_, err := s.db.ExecContext(context.Background(), `
		INSERT OR IGNORE INTO records
			(url, domain, seed, depth, title, text, snippet, word_count, content_hash, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.URL, r.Domain, r.Seed, r.Depth, r.Title, r.Text, r.Snippet,
		r.WordCount, r.ContentHash, r.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// ByDomain returns the stored records for a domain, most recent first.
func (s *SQLiteStore) ByDomain(domain string) ([]model.Record, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT url, domain, seed, depth, title, text, snippet, word_count, content_hash, fetched_at
		FROM records WHERE domain = ? ORDER BY fetched_at DESC`, domain)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close() //nolint:errcheck // rows.Err is checked below

	var records []model.Record
	for rows.Next() {
		var r model.Record
		if err := rows.Scan(&r.URL, &r.Domain, &r.Seed, &r.Depth, &r.Title, &r.Text,
			&r.Snippet, &r.WordCount, &r.ContentHash, &r.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}
