package model

import (
	"net/url"
	"strings"
	"time"
)

// Target is a single fetch candidate in the crawl frontier.
// Targets are immutable: link discovery creates new Targets at depth+1
// rather than mutating the parent.
type Target struct {
	// URL is the absolute URL to fetch.
	URL string `json:"url"`

	// Domain is the lowercase host the URL belongs to.
	Domain string `json:"domain"`

	// Depth is the BFS distance from the seed. Seeds are depth 0.
	Depth int `json:"depth"`

	// Seed is the query or seed URL this target was discovered under.
	Seed string `json:"seed"`

	// DiscoveredAt is when the frontier first accepted this target.
	DiscoveredAt time.Time `json:"discovered_at"`
}

// NewTarget creates a depth-0 target from a seed URL.
// Returns the zero Target and false if the URL cannot be parsed.
func NewTarget(rawURL string) (Target, bool) {
	d, ok := DomainOf(rawURL)
	if !ok {
		return Target{}, false
	}
	return Target{
		URL:          rawURL,
		Domain:       d,
		Depth:        0,
		Seed:         rawURL,
		DiscoveredAt: time.Now(),
	}, true
}

// Child creates a target for a link discovered on this target's page.
// The child inherits the seed and sits one depth level deeper.
func (t Target) Child(rawURL string) (Target, bool) {
	d, ok := DomainOf(rawURL)
	if !ok {
		return Target{}, false
	}
	return Target{
		URL:          rawURL,
		Domain:       d,
		Depth:        t.Depth + 1,
		Seed:         t.Seed,
		DiscoveredAt: time.Now(),
	}, true
}

// Key returns the identity of this target as used by the checkpoint.
// Two targets with the same URL are the same unit of work regardless of
// which seed or depth discovered them.
func (t Target) Key() string {
	return t.URL
}

// DomainOf extracts the lowercase host from a URL, stripping any
// "www." prefix so that www and apex variants count as one domain.
func DomainOf(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", false
	}
	return host, true
}
