package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Result is the usable content of one fetched page.
type Result struct {
	// Title is the document title, empty when the page declares none.
	Title string

	// Text is the visible text with whitespace collapsed.
	Text string

	// WordCount is the number of whitespace-separated words in Text.
	WordCount int

	// Links are the absolute http(s) URLs discovered in anchors,
	// resolved against the page URL, in document order, deduplicated.
	Links []string
}

// Extract parses an HTML payload into title, visible text, and outbound
// links. The content type drives charset detection so non-UTF-8 pages
// decode correctly.
func Extract(body []byte, contentType, pageURL string) (*Result, error) {
	if !isHTML(contentType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}

	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}
	doc, err := html.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	w := walker{base: base, seen: make(map[string]bool)}
	w.visit(doc)

	text := strings.Join(w.words, " ")
	return &Result{
		Title:     strings.TrimSpace(w.title),
		Text:      text,
		WordCount: len(w.words),
		Links:     w.links,
	}, nil
}

// walker accumulates extraction state during the DOM traversal.
type walker struct {
	base  *url.URL
	title string
	words []string
	links []string
	seen  map[string]bool

	inTitle bool
}

// skippedElements never contribute visible text.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"iframe":   true,
	"svg":      true,
}

func (w *walker) visit(n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		if skippedElements[n.Data] {
			return
		}
		switch n.Data {
		case "title":
			w.inTitle = true
			defer func() { w.inTitle = false }()
		case "a":
			w.collectLink(n)
		}
	case html.TextNode:
		if w.inTitle {
			w.title += n.Data
		} else {
			w.words = append(w.words, strings.Fields(n.Data)...)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.visit(c)
	}
}

// collectLink resolves an anchor's href against the page URL and keeps
// http(s) results, fragment stripped, each URL once.
func (w *walker) collectLink(n *html.Node) {
	for _, attr := range n.Attr {
		if attr.Key != "href" {
			continue
		}
		ref, err := url.Parse(strings.TrimSpace(attr.Val))
		if err != nil {
			return
		}
		abs := w.base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		abs.Fragment = ""
		s := abs.String()
		if !w.seen[s] {
			w.seen[s] = true
			w.links = append(w.links, s)
		}
		return
	}
}

// isHTML reports whether the content type names an HTML document. An
// empty content type is treated as HTML because many small sites omit
// the header entirely.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}
