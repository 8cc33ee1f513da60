// Package session orchestrates one crawl session end to end: seeding
// the frontier, dispatching targets concurrently, routing payloads
// through extraction, dedup, and persistence, folding every terminal
// outcome into the checkpoint, and triggering periodic Tor circuit
// renewal.
package session
