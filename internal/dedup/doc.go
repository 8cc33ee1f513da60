// Package dedup rejects duplicate pages before they are persisted.
// Three layers run in order: a normalized-URL hash set, an exact hash of
// a bounded content prefix, and a MinHash/LSH similarity index that
// catches republished content with superficial edits. All state is
// exportable so a resumed session reconstructs identical behavior.
package dedup
