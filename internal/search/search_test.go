package search

import (
	"context"
	"testing"
)

func TestDirectProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		q    string
		want int
	}{
		{name: "https url", q: "https://example.com/page", want: 1},
		{name: "http url with whitespace", q: "  http://example.com  ", want: 1},
		{name: "plain query", q: "quarterly results 2026", want: 0},
		{name: "non http scheme", q: "ftp://example.com/file", want: 0},
		{name: "empty", q: "", want: 0},
	}

	p := NewDirectProvider()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			urls, err := p.Query(context.Background(), tt.q)
			if err != nil {
				t.Fatalf("query failed: %v", err)
			}
			if len(urls) != tt.want {
				t.Errorf("Query(%q) = %v, want %d candidates", tt.q, urls, tt.want)
			}
		})
	}
}

func TestChainProvider(t *testing.T) {
	t.Parallel()

	static := NewStaticProvider(map[string][]string{
		"acme earnings": {"https://acme.com/ir", "https://acme.com/press"},
	})
	chain := NewChainProvider(NewDirectProvider(), static)

	urls, err := chain.Query(context.Background(), "https://direct.com/page")
	if err != nil {
		t.Fatal(err)
	}
	if len(urls) != 1 || urls[0] != "https://direct.com/page" {
		t.Errorf("URL seed = %v, want the direct candidate", urls)
	}

	urls, err = chain.Query(context.Background(), "acme earnings")
	if err != nil {
		t.Fatal(err)
	}
	if len(urls) != 2 {
		t.Errorf("query seed = %v, want the static candidates", urls)
	}

	urls, err = chain.Query(context.Background(), "unknown query")
	if err != nil {
		t.Fatal(err)
	}
	if len(urls) != 0 {
		t.Errorf("unknown query = %v, want empty", urls)
	}
}
