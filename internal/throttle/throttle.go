package throttle

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Signal classifies a fetch outcome for delay adaptation.
// The throttle does not interpret HTTP status codes itself; the scheduler
// maps raw responses to signals so the two concerns stay separate.
type Signal int

const (
	// SignalSuccess halves the domain's delay down to the floor.
	SignalSuccess Signal = iota

	// SignalBlocked doubles the delay (429/503 without a Retry-After hint).
	SignalBlocked

	// SignalSoftBlock multiplies the delay by 1.5 (403).
	SignalSoftBlock

	// SignalServerError multiplies the delay by 1.25 (transient 5xx and
	// network errors).
	SignalServerError
)

// Throttle gates fetches per domain and globally, and adapts each
// domain's inter-request delay from fetch outcomes. Each domain converges
// independently: one hostile domain slowing to a crawl never starves the
// others, because both the delay and the concurrency slots are
// domain-scoped.
//
// Design decision: base pacing rides on a per-domain rate.Limiter whose
// rate is re-tuned on every recorded outcome, rather than sleeping inline.
// The limiter already handles the bookkeeping for "one request per delay
// window" under concurrency, and Wait respects context cancellation.
type Throttle struct {
	floor      time.Duration
	ceiling    time.Duration
	perDomain  int
	global     *semaphore.Weighted
	siteFloors map[string]time.Duration

	mu      sync.Mutex
	domains map[string]*domainState
}

// domainState is the per-domain adaptive state. It is created lazily on
// first sight of the domain and lives for the session.
type domainState struct {
	mu          sync.Mutex
	delay       time.Duration
	floor       time.Duration
	limiter     *rate.Limiter
	slots       chan struct{}
	blockStreak int
}

// Option configures a Throttle.
type Option func(*Throttle)

// WithDelayBounds sets the delay floor and ceiling.
func WithDelayBounds(floor, ceiling time.Duration) Option {
	return func(t *Throttle) {
		if floor > 0 {
			t.floor = floor
		}
		if ceiling >= t.floor {
			t.ceiling = ceiling
		}
	}
}

// WithPerDomainLimit sets the per-domain concurrency cap.
func WithPerDomainLimit(n int) Option {
	return func(t *Throttle) {
		if n > 0 {
			t.perDomain = n
		}
	}
}

// WithGlobalLimit sets the global concurrency cap.
func WithGlobalLimit(n int) Option {
	return func(t *Throttle) {
		if n > 0 {
			t.global = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithSiteFloors sets per-domain delay floor overrides, typically loaded
// from the sites file. An override also raises that domain's initial delay.
func WithSiteFloors(floors map[string]time.Duration) Option {
	return func(t *Throttle) {
		t.siteFloors = floors
	}
}

// New creates a Throttle. Defaults: 500ms floor, 60s ceiling, 3 slots per
// domain, 10 global slots.
func New(opts ...Option) *Throttle {
	t := &Throttle{
		floor:     500 * time.Millisecond,
		ceiling:   60 * time.Second,
		perDomain: 3,
		global:    semaphore.NewWeighted(10),
		domains:   make(map[string]*domainState),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// state returns the domain's state, creating it on first sight.
func (t *Throttle) state(domain string) *domainState {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.domains[domain]
	if !ok {
		floor := t.floor
		if f, ok := t.siteFloors[domain]; ok && f > floor {
			floor = f
		}
		st = &domainState{
			delay: floor,
			floor: floor,
			// Burst 1: the limiter releases one request per delay window.
			limiter: rate.NewLimiter(rate.Every(floor), 1),
			slots:   make(chan struct{}, t.perDomain),
		}
		t.domains[domain] = st
	}
	return st
}

// Acquire blocks until the domain's concurrency slot, the global slot,
// and the domain's pacing window are all available, then returns a lease.
// The lease must be released on every exit path; it frees both slots.
//
// Acquisition order is domain slot, then pacing, then global slot. The
// domain-scoped waits happen first so a worker stuck behind a saturated
// or slow-paced domain is not holding a global slot the whole time;
// the global semaphore is only taken once the fetch is ready to go.
func (t *Throttle) Acquire(ctx context.Context, domain string) (*Lease, error) {
	st := t.state(domain)

	select {
	case st.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := st.limiter.Wait(ctx); err != nil {
		<-st.slots
		return nil, err
	}

	if err := t.global.Acquire(ctx, 1); err != nil {
		<-st.slots
		return nil, err
	}

	return &Lease{throttle: t, state: st}, nil
}

// Record adjusts the domain's delay from a fetch outcome. hint carries
// the server's Retry-After value for blocked responses; zero means no
// hint was given.
func (t *Throttle) Record(domain string, sig Signal, hint time.Duration) {
	st := t.state(domain)
	st.mu.Lock()
	defer st.mu.Unlock()

	switch sig {
	case SignalSuccess:
		st.delay /= 2
		if st.delay < st.floor {
			st.delay = st.floor
		}
		st.blockStreak = 0
	case SignalBlocked:
		next := st.delay * 2
		if hint > next {
			next = hint
		}
		st.delay = next
		st.blockStreak++
	case SignalSoftBlock:
		st.delay = st.delay * 3 / 2
		st.blockStreak++
	case SignalServerError:
		st.delay = st.delay * 5 / 4
	}
	if st.delay > t.ceiling {
		st.delay = t.ceiling
	}
	st.limiter.SetLimit(rate.Every(st.delay))
}

// RaiseFloor raises a domain's delay floor at runtime, typically from a
// robots.txt Crawl-delay directive. The floor only ever goes up and is
// clamped to the ceiling.
func (t *Throttle) RaiseFloor(domain string, floor time.Duration) {
	if floor <= 0 {
		return
	}
	st := t.state(domain)
	st.mu.Lock()
	defer st.mu.Unlock()

	if floor > t.ceiling {
		floor = t.ceiling
	}
	if floor <= st.floor {
		return
	}
	st.floor = floor
	if st.delay < floor {
		st.delay = floor
		st.limiter.SetLimit(rate.Every(st.delay))
	}
}

// Delay returns the domain's current inter-request delay.
func (t *Throttle) Delay(domain string) time.Duration {
	st := t.state(domain)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.delay
}

// BlockStreak returns the domain's consecutive block count since the last
// success.
func (t *Throttle) BlockStreak(domain string) int {
	st := t.state(domain)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.blockStreak
}

// InFlight returns the number of leases currently held for the domain.
func (t *Throttle) InFlight(domain string) int {
	return len(t.state(domain).slots)
}

// Lease represents held domain and global slots. Release frees both and
// is safe to call more than once.
type Lease struct {
	throttle *Throttle
	state    *domainState
	once     sync.Once
}

// Release frees the lease's slots. Guaranteed single-shot.
func (l *Lease) Release() {
	l.once.Do(func() {
		<-l.state.slots
		l.throttle.global.Release(1)
	})
}
