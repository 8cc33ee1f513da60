package frontier

import (
	"fmt"
	"testing"

	"github.com/pagetrawl/pagetrawl/internal/model"
)

func seedTarget(t *testing.T, rawURL string) model.Target {
	t.Helper()
	target, ok := model.NewTarget(rawURL)
	if !ok {
		t.Fatalf("invalid seed URL %q", rawURL)
	}
	return target
}

func TestBreadthFirstOrder(t *testing.T) {
	t.Parallel()

	f := New(WithMaxDepth(2))
	s1 := seedTarget(t, "https://a.com/")
	s2 := seedTarget(t, "https://b.com/")
	if got := f.Seed([]model.Target{s1, s2}); got != 2 {
		t.Fatalf("seeded %d targets, want 2", got)
	}

	// Discover depth-1 links before draining depth 0.
	f.Feed(s1, []string{"https://a.com/one", "https://a.com/two"})

	var depths []int
	for {
		target, ok := f.Next()
		if !ok {
			break
		}
		depths = append(depths, target.Depth)
	}
	want := []int{0, 0, 1, 1}
	if len(depths) != len(want) {
		t.Fatalf("drained %d targets, want %d", len(depths), len(want))
	}
	for i := range want {
		if depths[i] != want[i] {
			t.Fatalf("depth order = %v, want %v", depths, want)
		}
	}
}

func TestFeedFiltersForeignDomains(t *testing.T) {
	t.Parallel()

	f := New()
	src := seedTarget(t, "https://a.com/")
	f.Seed([]model.Target{src})

	admitted := f.Feed(src, []string{
		"https://a.com/keep",
		"https://other.com/drop",
		"https://www.a.com/keep2", // www is stripped in normalization
	})
	if admitted != 2 {
		t.Errorf("admitted = %d, want 2 same-domain links", admitted)
	}
}

func TestSeenTargetsAdmittedOnce(t *testing.T) {
	t.Parallel()

	f := New()
	src := seedTarget(t, "https://a.com/")
	f.Seed([]model.Target{src, src})
	if got := f.Admitted(); got != 1 {
		t.Errorf("admitted after duplicate seed = %d, want 1", got)
	}

	f.Feed(src, []string{"https://a.com/page"})
	f.Feed(src, []string{"https://a.com/page"})
	if got := f.Admitted(); got != 2 {
		t.Errorf("admitted after duplicate feed = %d, want 2", got)
	}
}

func TestExcludedDomains(t *testing.T) {
	t.Parallel()

	f := New(WithExcludedDomains(map[string]bool{"blocked.com": true}))
	good := seedTarget(t, "https://ok.com/")
	bad := seedTarget(t, "https://blocked.com/")
	if got := f.Seed([]model.Target{good, bad}); got != 1 {
		t.Errorf("seeded %d, want 1 with blocked.com excluded", got)
	}
}

// TestPerDomainCapBoundsFanOut seeds ten domains with dense link pages
// and verifies no domain exceeds its admission cap at depth 1.
func TestPerDomainCapBoundsFanOut(t *testing.T) {
	t.Parallel()

	const domainCap = 5
	f := New(WithMaxDepth(1), WithDomainCap(domainCap), WithDepthCap(1000), WithTotalCap(5000))

	var seeds []model.Target
	for i := 0; i < 10; i++ {
		seeds = append(seeds, seedTarget(t, fmt.Sprintf("https://site%d.com/", i)))
	}
	f.Seed(seeds)

	for _, src := range seeds {
		var links []string
		for j := 0; j < 50; j++ {
			links = append(links, fmt.Sprintf("https://%s/p%d", src.Domain, j))
		}
		f.Feed(src, links)
	}

	depthOne := make(map[string]int)
	for {
		target, ok := f.Next()
		if !ok {
			break
		}
		if target.Depth == 1 {
			depthOne[target.Domain]++
		}
	}
	for domain, n := range depthOne {
		if n > domainCap {
			t.Errorf("domain %s got %d depth-1 targets, cap is %d", domain, n, domainCap)
		}
	}
	if len(depthOne) != 10 {
		t.Errorf("depth-1 targets span %d domains, want 10", len(depthOne))
	}
}

func TestDepthCap(t *testing.T) {
	t.Parallel()

	f := New(WithMaxDepth(1), WithDomainCap(100), WithDepthCap(3))
	src := seedTarget(t, "https://a.com/")
	f.Seed([]model.Target{src})

	var links []string
	for i := 0; i < 10; i++ {
		links = append(links, fmt.Sprintf("https://a.com/p%d", i))
	}
	if got := f.Feed(src, links); got != 3 {
		t.Errorf("admitted = %d, want depth cap 3", got)
	}
}

func TestTotalCap(t *testing.T) {
	t.Parallel()

	f := New(WithTotalCap(2))
	var seeds []model.Target
	for i := 0; i < 5; i++ {
		seeds = append(seeds, seedTarget(t, fmt.Sprintf("https://s%d.com/", i)))
	}
	if got := f.Seed(seeds); got != 2 {
		t.Errorf("seeded %d, want total cap 2", got)
	}
}

func TestFollowDisabled(t *testing.T) {
	t.Parallel()

	f := New(WithFollowLinks(false))
	src := seedTarget(t, "https://a.com/")
	f.Seed([]model.Target{src})

	if got := f.Feed(src, []string{"https://a.com/page"}); got != 0 {
		t.Errorf("admitted = %d, want 0 with link following disabled", got)
	}
	if got := f.Pending(); got != 1 {
		t.Errorf("pending = %d, want only the seed", got)
	}
}

func TestMaxDepthStopsExpansion(t *testing.T) {
	t.Parallel()

	f := New(WithMaxDepth(1))
	src := seedTarget(t, "https://a.com/")
	f.Seed([]model.Target{src})
	f.Feed(src, []string{"https://a.com/d1"})

	d1, ok := f.Next() // the seed
	if !ok || d1.Depth != 0 {
		t.Fatalf("first target = %+v, want the depth-0 seed", d1)
	}
	d1, ok = f.Next()
	if !ok || d1.Depth != 1 {
		t.Fatalf("second target = %+v, want a depth-1 target", d1)
	}

	if got := f.Feed(d1, []string{"https://a.com/d2"}); got != 0 {
		t.Errorf("admitted = %d, want 0 past max depth", got)
	}
}

func TestMarkSeenBlocksReadmission(t *testing.T) {
	t.Parallel()

	f := New()
	src := seedTarget(t, "https://a.com/")
	f.MarkSeen([]string{src.URL})

	if got := f.Seed([]model.Target{src}); got != 0 {
		t.Errorf("seeded %d, want 0 for a previously seen target", got)
	}
}

func TestSitePageLimitOverride(t *testing.T) {
	t.Parallel()

	f := New(WithDomainCap(10), WithSitePageLimits(map[string]int{"small.com": 2}))
	src := seedTarget(t, "https://small.com/")
	f.Seed([]model.Target{src})

	admitted := f.Feed(src, []string{
		"https://small.com/a",
		"https://small.com/b",
		"https://small.com/c",
	})
	// The seed already consumed one of the two slots.
	if admitted != 1 {
		t.Errorf("admitted = %d, want 1 under the site override", admitted)
	}
}

func TestIgnorePatterns(t *testing.T) {
	t.Parallel()

	f := New(WithIgnorePatterns(map[string][]string{
		"a.com": {"/login", "?session="},
	}))
	src := seedTarget(t, "https://a.com/")
	f.Seed([]model.Target{src})

	admitted := f.Feed(src, []string{
		"https://a.com/login",
		"https://a.com/page?session=abc",
		"https://a.com/article",
	})
	if admitted != 1 {
		t.Errorf("admitted = %d, want only the article", admitted)
	}
}
