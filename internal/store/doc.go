// Package store persists accepted page records. Two writers are
// provided: a SQLite database keyed by URL and an append-only JSONL
// file; MultiWriter combines them.
package store
