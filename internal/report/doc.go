// Package report renders session summaries. Three formats are
// supported: plain text for the terminal, JSON for tool integration,
// and Markdown for documentation; MultiWriter combines them.
package report
