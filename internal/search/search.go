package search

import (
	"context"
	"net/url"
	"strings"
)

// Provider turns a seed query into candidate URLs for the frontier.
// Implementations may call an external search API; the engine only
// depends on this interface.
type Provider interface {
	// Query returns candidate URLs for q. An empty result with a nil
	// error means the query legitimately matched nothing.
	Query(ctx context.Context, q string) ([]string, error)
}

// DirectProvider treats seeds that are already URLs as their own single
// candidate. Anything that does not parse as an absolute http(s) URL
// yields no candidates.
type DirectProvider struct{}

// NewDirectProvider creates a DirectProvider.
func NewDirectProvider() *DirectProvider {
	return &DirectProvider{}
}

// Query implements Provider.
func (p *DirectProvider) Query(_ context.Context, q string) ([]string, error) {
	u, err := url.Parse(strings.TrimSpace(q))
	if err != nil || u.Host == "" {
		return nil, nil
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, nil
	}
	return []string{u.String()}, nil
}

// StaticProvider answers queries from a fixed table. Used in tests and
// for curated seed sets where the candidate URLs are known up front.
type StaticProvider struct {
	results map[string][]string
}

// NewStaticProvider creates a StaticProvider over the given table.
func NewStaticProvider(results map[string][]string) *StaticProvider {
	return &StaticProvider{results: results}
}

// Query implements Provider.
func (p *StaticProvider) Query(_ context.Context, q string) ([]string, error) {
	return p.results[q], nil
}

// ChainProvider consults providers in order and returns the first
// non-empty result, so URL seeds bypass the search backend.
type ChainProvider struct {
	providers []Provider
}

// NewChainProvider combines providers.
func NewChainProvider(providers ...Provider) *ChainProvider {
	return &ChainProvider{providers: providers}
}

// Query implements Provider.
func (p *ChainProvider) Query(ctx context.Context, q string) ([]string, error) {
	for _, provider := range p.providers {
		urls, err := provider.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		if len(urls) > 0 {
			return urls, nil
		}
	}
	return nil, nil
}
