// Package checkpoint persists crawl session state durably. A Snapshot
// holds completed and seen targets, per-target failure budgets, dedup
// state, and aggregate counters; a Manager writes snapshots atomically
// via a temp-file-and-rename protocol and drives the resume and reset
// semantics.
package checkpoint
