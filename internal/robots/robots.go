package robots

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// maxRobotsSize bounds how much of a robots.txt response is read.
const maxRobotsSize = 512 * 1024

// Oracle answers whether a URL may be fetched under the site's robots
// policy. Policies are fetched once per host and cached for the session.
//
// Design decision: the oracle defaults to allow. A site whose robots.txt
// is unreachable or malformed is treated as permissive rather than
// silently dropped, because a transient robots fetch failure should not
// erase a whole domain from the session.
type Oracle struct {
	client *http.Client
	agent  string

	mu    sync.Mutex
	cache map[string]*policy
}

// policy is the cached per-host result.
type policy struct {
	group *robotstxt.Group
	delay time.Duration
}

// OracleOption configures an Oracle.
type OracleOption func(*Oracle)

// WithAgent sets the user agent token matched against robots groups.
func WithAgent(agent string) OracleOption {
	return func(o *Oracle) {
		if agent != "" {
			o.agent = agent
		}
	}
}

// NewOracle creates an Oracle fetching policies over the given client.
// Pass the same client the crawl uses so robots fetches ride the same
// proxy path as page fetches.
func NewOracle(client *http.Client, opts ...OracleOption) *Oracle {
	o := &Oracle{
		client: client,
		agent:  "pagetrawl",
		cache:  make(map[string]*policy),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Allowed reports whether rawURL may be fetched. Unparseable URLs are
// allowed; the scheduler will fail them with a clearer reason.
func (o *Oracle) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}
	p := o.policyFor(ctx, u)
	if p.group == nil {
		return true
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return p.group.Test(path)
}

// CrawlDelay returns the Crawl-delay directive for the URL's host, zero
// when the site declares none. Only hosts already consulted via Allowed
// have a cached delay; an unknown host returns zero without a fetch.
func (o *Oracle) CrawlDelay(rawURL string) time.Duration {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return 0
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if p, ok := o.cache[cacheKey(u)]; ok {
		return p.delay
	}
	return 0
}

// policyFor returns the host's cached policy, fetching it on first use.
func (o *Oracle) policyFor(ctx context.Context, u *url.URL) *policy {
	key := cacheKey(u)

	o.mu.Lock()
	if p, ok := o.cache[key]; ok {
		o.mu.Unlock()
		return p
	}
	o.mu.Unlock()

	p := o.fetch(ctx, u)

	o.mu.Lock()
	o.cache[key] = p
	o.mu.Unlock()
	return p
}

// fetch retrieves and parses the host's robots.txt. Any failure yields
// the permissive policy.
func (o *Oracle) fetch(ctx context.Context, u *url.URL) *policy {
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return &policy{}
	}
	req.Header.Set("User-Agent", o.agent)

	resp, err := o.client.Do(req)
	if err != nil {
		return &policy{}
	}
	defer resp.Body.Close() //nolint:errcheck // read side is what matters

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsSize))
	if err != nil {
		return &policy{}
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return &policy{}
	}
	group := data.FindGroup(o.agent)
	p := &policy{group: group}
	if group != nil {
		p.delay = group.CrawlDelay
	}
	return p
}

// cacheKey scopes cached policies to scheme and host.
func cacheKey(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}
