package report

import (
	"io"
	"time"
)

// timeRounding trims sub-millisecond noise from rendered durations.
const timeRounding = time.Millisecond

// DomainSummary aggregates one domain's session outcome.
type DomainSummary struct {
	// Domain is the normalized domain name.
	Domain string `json:"domain"`

	// Fetched is how many pages completed successfully.
	Fetched int `json:"fetched"`

	// Blocks is how many blocking responses the domain returned.
	Blocks int `json:"blocks"`

	// FinalDelay is the adaptive delay the domain converged to.
	FinalDelay time.Duration `json:"finalDelay"`
}

// Summary is the session report handed to the writers.
type Summary struct {
	// StartedAt and FinishedAt bound the session.
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	// Seeds is the number of seed targets loaded.
	Seeds int `json:"seeds"`

	// Admitted is the number of targets the frontier accepted.
	Admitted int `json:"admitted"`

	// Fetched, Persisted, Duplicates, Failed, Blocked are the terminal
	// outcome counters.
	Fetched    int `json:"fetched"`
	Persisted  int `json:"persisted"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
	Blocked    int `json:"blocked"`

	// DedupMode is the active dedup guarantee, exact+fuzzy or exact-only.
	DedupMode string `json:"dedupMode"`

	// Resumed reports whether the session continued from a checkpoint.
	Resumed bool `json:"resumed"`

	// TorEnabled reports whether fetches were routed through Tor.
	TorEnabled bool `json:"torEnabled"`

	// Domains holds per-domain aggregates, sorted by fetch count.
	Domains []DomainSummary `json:"domains"`
}

// Duration returns the session's wall-clock length.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Writer outputs a session summary in one format.
type Writer interface {
	// Write renders the summary, returning the bytes written.
	Write(s *Summary) (int, error)
}

// MultiWriter renders the summary in several formats at once, e.g. the
// terminal plus a markdown file. Stops at the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter combines writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write implements Writer.
func (m *MultiWriter) Write(s *Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(s)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter carries the shared output destination.
type baseWriter struct {
	output io.Writer
}
