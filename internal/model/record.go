package model

import "time"

// Record is one deduplicated, extracted page ready for persistence.
// This is the unit handed to the record store after a fetch survives
// extraction and all three dedup layers.
type Record struct {
	// URL is the fetched URL.
	URL string `json:"url"`

	// Domain is the lowercase host the page came from.
	Domain string `json:"domain"`

	// Seed is the seed URL or query the page was discovered under.
	Seed string `json:"seed"`

	// Depth is the BFS depth the page was fetched at.
	Depth int `json:"depth"`

	// Title is the extracted page title, if any.
	Title string `json:"title,omitempty"`

	// Text is the extracted plain text content.
	Text string `json:"text"`

	// Snippet is a short preview of the text for listings.
	Snippet string `json:"snippet,omitempty"`

	// WordCount is the number of words in Text.
	WordCount int `json:"word_count"`

	// ContentHash is the SHA-256 hex digest of the content prefix used by
	// the exact-duplicate layer. Stored so re-runs can correlate records
	// with checkpoint dedup state.
	ContentHash string `json:"content_hash"`

	// FetchedAt is when the page was fetched.
	FetchedAt time.Time `json:"fetched_at"`
}

// maxSnippetLen bounds the preview stored with each record.
const maxSnippetLen = 300

// NewRecord builds a Record from a fetched target and its extracted
// text. contentHash is the exact-duplicate layer's hash of text, so the
// record and the dedup store agree on content identity.
func NewRecord(t Target, title, text string, wordCount int, contentHash string) Record {
	snippet := text
	// Truncate on a rune boundary so a multi-byte character is never
	// split mid-sequence.
	if runes := []rune(snippet); len(runes) > maxSnippetLen {
		snippet = string(runes[:maxSnippetLen]) + "..."
	}
	return Record{
		URL:         t.URL,
		Domain:      t.Domain,
		Seed:        t.Seed,
		Depth:       t.Depth,
		Title:       title,
		Text:        text,
		Snippet:     snippet,
		WordCount:   wordCount,
		ContentHash: contentHash,
		FetchedAt:   time.Now(),
	}
}
