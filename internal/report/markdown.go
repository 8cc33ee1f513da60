package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
)

// MarkdownWriter renders the summary as a Markdown document for sharing
// and documentation.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter writing to output.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: baseWriter{output: output}}
}

// Write implements Writer.
func (w *MarkdownWriter) Write(s *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl Session Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Started", s.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", s.Duration().Round(timeRounding).String()},
			{"Dedup mode", s.DedupMode},
			{"Resumed", strconv.FormatBool(s.Resumed)},
			{"Tor egress", strconv.FormatBool(s.TorEnabled)},
		},
	})

	md.H2("Totals")
	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Count"},
		Rows: [][]string{
			{"Seeds", strconv.Itoa(s.Seeds)},
			{"Admitted", strconv.Itoa(s.Admitted)},
			{"Fetched", strconv.Itoa(s.Fetched)},
			{"Persisted", strconv.Itoa(s.Persisted)},
			{"Duplicates", strconv.Itoa(s.Duplicates)},
			{"Failed", strconv.Itoa(s.Failed)},
			{"Blocked", strconv.Itoa(s.Blocked)},
		},
	})

	if len(s.Domains) > 0 {
		md.H2("Domains")
		rows := make([][]string, 0, len(s.Domains))
		for _, d := range s.Domains {
			rows = append(rows, []string{
				d.Domain,
				strconv.Itoa(d.Fetched),
				strconv.Itoa(d.Blocks),
				d.FinalDelay.Round(timeRounding).String(),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Domain", "Fetched", "Blocks", "Final delay"},
			Rows:   rows,
		})
	}

	return len(md.String()), md.Build()
}
