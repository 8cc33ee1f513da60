package frontier

import (
	"strings"
	"sync"

	"github.com/pagetrawl/pagetrawl/internal/model"
)

// Frontier is a depth-keyed breadth-first queue of fetch targets. Seeds
// enter at depth zero; links discovered on a depth-d page enter at depth
// d+1, filtered to the source's domain and bounded by per-domain,
// per-depth, and global admission caps.
//
// Design decision: admission caps are enforced at enqueue time, not at
// dequeue time. A link-dense page can offer hundreds of candidates in one
// Feed call; rejecting the overflow immediately keeps the queue's memory
// bounded and makes the caps observable as admission counts.
type Frontier struct {
	mu sync.Mutex

	// queues holds pending targets per depth. BFS order falls out of
	// always draining the lowest non-empty depth first.
	queues [][]model.Target

	seen           map[string]bool
	perDomain      map[string]int
	perDepth       map[int]int
	totalAdmitted  int
	maxDepth       int
	maxPerDomain   int
	maxPerDepth    int
	maxTotal       int
	follow         bool
	excluded       map[string]bool
	siteMaxPages   map[string]int
	ignorePatterns map[string][]string
}

// FrontierOption configures a Frontier.
type FrontierOption func(*Frontier)

// WithMaxDepth bounds crawl depth. Zero means seeds only.
func WithMaxDepth(d int) FrontierOption {
	return func(f *Frontier) {
		if d >= 0 {
			f.maxDepth = d
		}
	}
}

// WithDomainCap bounds admitted targets per domain.
func WithDomainCap(n int) FrontierOption {
	return func(f *Frontier) {
		if n > 0 {
			f.maxPerDomain = n
		}
	}
}

// WithDepthCap bounds admitted targets per depth across all domains.
// This contains runaway fan-out from link-dense pages.
func WithDepthCap(n int) FrontierOption {
	return func(f *Frontier) {
		if n > 0 {
			f.maxPerDepth = n
		}
	}
}

// WithTotalCap bounds admitted targets across the whole session.
func WithTotalCap(n int) FrontierOption {
	return func(f *Frontier) {
		if n > 0 {
			f.maxTotal = n
		}
	}
}

// WithFollowLinks enables link following. When disabled, Feed is a no-op
// and only seeds are ever produced.
func WithFollowLinks(follow bool) FrontierOption {
	return func(f *Frontier) {
		f.follow = follow
	}
}

// WithExcludedDomains rejects targets on the listed domains. Keys are
// normalized bare domains.
func WithExcludedDomains(domains map[string]bool) FrontierOption {
	return func(f *Frontier) {
		if domains != nil {
			f.excluded = domains
		}
	}
}

// WithSitePageLimits overrides the per-domain cap for specific domains,
// typically from the sites file.
func WithSitePageLimits(limits map[string]int) FrontierOption {
	return func(f *Frontier) {
		f.siteMaxPages = limits
	}
}

// WithIgnorePatterns rejects discovered URLs containing any of the listed
// substrings, per domain.
func WithIgnorePatterns(patterns map[string][]string) FrontierOption {
	return func(f *Frontier) {
		f.ignorePatterns = patterns
	}
}

// New creates a Frontier. Defaults: depth 2, 50 pages per domain, 1000
// per depth, 5000 total, link following enabled.
func New(opts ...FrontierOption) *Frontier {
	f := &Frontier{
		seen:         make(map[string]bool),
		perDomain:    make(map[string]int),
		perDepth:     make(map[int]int),
		maxDepth:     2,
		maxPerDomain: 50,
		maxPerDepth:  1000,
		maxTotal:     5000,
		follow:       true,
		excluded:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.queues = make([][]model.Target, f.maxDepth+1)
	return f
}

// Seed admits depth-0 targets. Returns the number admitted; duplicates,
// excluded domains, and cap overflows are dropped.
func (f *Frontier) Seed(targets []model.Target) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	admitted := 0
	for _, t := range targets {
		if t.Depth != 0 {
			continue
		}
		if f.admit(t) {
			admitted++
		}
	}
	return admitted
}

// Next returns the next target in breadth-first order. The second return
// value is false when no depth has pending work.
func (f *Frontier) Next() (model.Target, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for d := range f.queues {
		if len(f.queues[d]) == 0 {
			continue
		}
		t := f.queues[d][0]
		f.queues[d] = f.queues[d][1:]
		return t, true
	}
	return model.Target{}, false
}

// Feed offers links discovered on a successfully fetched page. Accepted
// links become targets one depth below the source, restricted to the
// source's domain. Returns the number admitted. When link following is
// disabled, Feed admits nothing.
func (f *Frontier) Feed(source model.Target, links []string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.follow || source.Depth >= f.maxDepth {
		return 0
	}

	admitted := 0
	for _, link := range links {
		child, ok := source.Child(link)
		if !ok {
			continue
		}
		if child.Domain != source.Domain {
			continue
		}
		if f.ignored(child) {
			continue
		}
		if f.admit(child) {
			admitted++
		}
	}
	return admitted
}

// MarkSeen records target keys as already visited without enqueuing them.
// Used on resume so completed and previously seen targets are never
// re-admitted.
func (f *Frontier) MarkSeen(keys []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		f.seen[k] = true
	}
}

// Pending returns the number of queued targets across all depths.
func (f *Frontier) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, q := range f.queues {
		n += len(q)
	}
	return n
}

// Admitted returns the total number of targets admitted this session.
func (f *Frontier) Admitted() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totalAdmitted
}

// admit applies the seen filter, exclusions, and all caps, then enqueues.
// Caller holds f.mu.
func (f *Frontier) admit(t model.Target) bool {
	if t.Depth > f.maxDepth {
		return false
	}
	if f.seen[t.Key()] {
		return false
	}
	if f.excluded[t.Domain] {
		return false
	}
	if f.totalAdmitted >= f.maxTotal {
		return false
	}
	if f.perDepth[t.Depth] >= f.maxPerDepth {
		return false
	}
	if f.perDomain[t.Domain] >= f.domainCap(t.Domain) {
		return false
	}

	f.seen[t.Key()] = true
	f.perDomain[t.Domain]++
	f.perDepth[t.Depth]++
	f.totalAdmitted++
	f.queues[t.Depth] = append(f.queues[t.Depth], t)
	return true
}

// domainCap returns the per-domain admission cap, honoring site overrides.
func (f *Frontier) domainCap(domain string) int {
	if n, ok := f.siteMaxPages[domain]; ok && n > 0 {
		return n
	}
	return f.maxPerDomain
}

// ignored reports whether the target's URL matches a configured ignore
// pattern for its domain.
func (f *Frontier) ignored(t model.Target) bool {
	for _, p := range f.ignorePatterns[t.Domain] {
		if p != "" && strings.Contains(t.URL, p) {
			return true
		}
	}
	return false
}
