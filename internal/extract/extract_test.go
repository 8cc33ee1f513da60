package extract

import (
	"errors"
	"strings"
	"testing"
)

const page = `<!DOCTYPE html>
<html>
<head>
  <title> Quarterly Results </title>
  <style>body { color: red }</style>
  <script>var tracking = "ignore me";</script>
</head>
<body>
  <h1>Quarterly Results</h1>
  <p>Revenue grew twelve percent year over year.</p>
  <a href="/investors">Investors</a>
  <a href="https://example.com/press#latest">Press</a>
  <a href="mailto:ir@example.com">Contact</a>
  <a href="/investors">Investors again</a>
  <noscript>Please enable JavaScript.</noscript>
</body>
</html>`

func TestExtract(t *testing.T) {
	t.Parallel()

	res, err := Extract([]byte(page), "text/html; charset=utf-8", "https://example.com/reports")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if res.Title != "Quarterly Results" {
		t.Errorf("title = %q, want trimmed document title", res.Title)
	}
	if !strings.Contains(res.Text, "Revenue grew twelve percent") {
		t.Errorf("text = %q, missing paragraph content", res.Text)
	}
	if strings.Contains(res.Text, "ignore me") || strings.Contains(res.Text, "color: red") {
		t.Error("script or style content leaked into text")
	}
	if strings.Contains(res.Text, "enable JavaScript") {
		t.Error("noscript content leaked into text")
	}
	if strings.Contains(res.Text, "Quarterly Results Quarterly") {
		t.Error("title text leaked into body text twice")
	}

	wantLinks := []string{
		"https://example.com/investors",
		"https://example.com/press",
	}
	if len(res.Links) != len(wantLinks) {
		t.Fatalf("links = %v, want %v", res.Links, wantLinks)
	}
	for i, want := range wantLinks {
		if res.Links[i] != want {
			t.Errorf("link[%d] = %q, want %q", i, res.Links[i], want)
		}
	}

	if res.WordCount != len(strings.Fields(res.Text)) {
		t.Errorf("word count = %d, inconsistent with text", res.WordCount)
	}
}

func TestExtractRelativeLinkResolution(t *testing.T) {
	t.Parallel()

	doc := `<html><body><a href="../up">Up</a><a href="sibling">Side</a></body></html>`
	res, err := Extract([]byte(doc), "text/html", "https://example.com/a/b/page")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	want := []string{"https://example.com/a/up", "https://example.com/a/b/sibling"}
	if len(res.Links) != 2 || res.Links[0] != want[0] || res.Links[1] != want[1] {
		t.Errorf("links = %v, want %v", res.Links, want)
	}
}

func TestExtractNonHTML(t *testing.T) {
	t.Parallel()

	_, err := Extract([]byte("%PDF-1.4"), "application/pdf", "https://example.com/doc.pdf")
	if !errors.Is(err, ErrUnsupportedContentType) {
		t.Fatalf("error = %v, want ErrUnsupportedContentType", err)
	}
}

func TestExtractEmptyContentTypeTreatedAsHTML(t *testing.T) {
	t.Parallel()

	res, err := Extract([]byte("<html><body>hello world</body></html>"), "", "https://example.com/")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if res.WordCount != 2 {
		t.Errorf("word count = %d, want 2", res.WordCount)
	}
}
