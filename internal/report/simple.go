package report

import (
	"fmt"
	"io"
	"strings"
)

// SimpleWriter renders a plain-text summary for the terminal. Plain
// ASCII, no ANSI colors, so output pipes cleanly into files and tools.
type SimpleWriter struct {
	baseWriter

	// verbose adds the per-domain breakdown.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables the per-domain breakdown.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter writing to output.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: baseWriter{output: output}}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write implements Writer.
func (w *SimpleWriter) Write(s *Summary) (int, error) {
	var b strings.Builder

	b.WriteString("Crawl session summary\n")
	b.WriteString("=====================\n")
	fmt.Fprintf(&b, "Duration:    %s\n", s.Duration().Round(timeRounding))
	fmt.Fprintf(&b, "Seeds:       %d\n", s.Seeds)
	fmt.Fprintf(&b, "Admitted:    %d\n", s.Admitted)
	fmt.Fprintf(&b, "Fetched:     %d\n", s.Fetched)
	fmt.Fprintf(&b, "Persisted:   %d\n", s.Persisted)
	fmt.Fprintf(&b, "Duplicates:  %d\n", s.Duplicates)
	fmt.Fprintf(&b, "Failed:      %d\n", s.Failed)
	fmt.Fprintf(&b, "Blocked:     %d\n", s.Blocked)
	fmt.Fprintf(&b, "Dedup mode:  %s\n", s.DedupMode)
	fmt.Fprintf(&b, "Resumed:     %t\n", s.Resumed)
	fmt.Fprintf(&b, "Tor egress:  %t\n", s.TorEnabled)

	if w.verbose && len(s.Domains) > 0 {
		b.WriteString("\nPer-domain breakdown\n")
		b.WriteString("--------------------\n")
		for _, d := range s.Domains {
			fmt.Fprintf(&b, "%-40s fetched=%d blocks=%d delay=%s\n",
				d.Domain, d.Fetched, d.Blocks, d.FinalDelay.Round(timeRounding))
		}
	}

	return io.WriteString(w.output, b.String())
}
