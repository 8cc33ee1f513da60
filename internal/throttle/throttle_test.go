package throttle

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fastThrottle builds a throttle with a tiny floor so tests that actually
// acquire leases do not spend real time pacing.
func fastThrottle(opts ...Option) *Throttle {
	base := []Option{WithDelayBounds(time.Millisecond, time.Minute)}
	return New(append(base, opts...)...)
}

// TestDelayAdaptation tests the delay controller against the documented
// multipliers.
func TestDelayAdaptation(t *testing.T) {
	t.Parallel()

	t.Run("success halves down to floor", func(t *testing.T) {
		t.Parallel()

		tr := New(WithDelayBounds(time.Second, time.Minute))
		// Push the delay up first: 1s -> 2s -> 4s -> 8s.
		for i := 0; i < 3; i++ {
			tr.Record("example.com", SignalBlocked, 0)
		}
		if got := tr.Delay("example.com"); got != 8*time.Second {
			t.Fatalf("delay after three blocks = %v, want 8s", got)
		}

		// 8s -> 4s -> 2s -> 1s -> 1s (floor).
		want := []time.Duration{4 * time.Second, 2 * time.Second, time.Second, time.Second}
		for i, w := range want {
			tr.Record("example.com", SignalSuccess, 0)
			if got := tr.Delay("example.com"); got != w {
				t.Errorf("delay after success %d = %v, want %v", i+1, got, w)
			}
		}
	})

	t.Run("blocked without hint doubles", func(t *testing.T) {
		t.Parallel()

		tr := New(WithDelayBounds(time.Second, time.Minute))
		want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
		for i, w := range want {
			tr.Record("a.com", SignalBlocked, 0)
			if got := tr.Delay("a.com"); got != w {
				t.Errorf("delay after block %d = %v, want %v", i+1, got, w)
			}
		}
	})

	t.Run("blocked with hint takes the larger of hint and double", func(t *testing.T) {
		t.Parallel()

		tr := New(WithDelayBounds(time.Second, time.Minute))
		tr.Record("a.com", SignalBlocked, 30*time.Second)
		if got := tr.Delay("a.com"); got != 30*time.Second {
			t.Errorf("delay = %v, want hint value 30s", got)
		}

		// A hint smaller than doubling is ignored.
		tr.Record("a.com", SignalBlocked, time.Second)
		if got := tr.Delay("a.com"); got != 60*time.Second {
			t.Errorf("delay = %v, want 60s (doubled, not the 1s hint)", got)
		}
	})

	t.Run("soft block multiplies by 1.5", func(t *testing.T) {
		t.Parallel()

		tr := New(WithDelayBounds(2*time.Second, time.Minute))
		tr.Record("a.com", SignalSoftBlock, 0)
		if got := tr.Delay("a.com"); got != 3*time.Second {
			t.Errorf("delay = %v, want 3s", got)
		}
	})

	t.Run("server error multiplies by 1.25", func(t *testing.T) {
		t.Parallel()

		tr := New(WithDelayBounds(4*time.Second, time.Minute))
		tr.Record("a.com", SignalServerError, 0)
		if got := tr.Delay("a.com"); got != 5*time.Second {
			t.Errorf("delay = %v, want 5s", got)
		}
	})

	t.Run("ceiling caps all growth", func(t *testing.T) {
		t.Parallel()

		tr := New(WithDelayBounds(time.Second, 4*time.Second))
		for i := 0; i < 10; i++ {
			tr.Record("a.com", SignalBlocked, 0)
		}
		if got := tr.Delay("a.com"); got != 4*time.Second {
			t.Errorf("delay = %v, want ceiling 4s", got)
		}
		// An oversized hint is also capped.
		tr.Record("a.com", SignalBlocked, time.Hour)
		if got := tr.Delay("a.com"); got != 4*time.Second {
			t.Errorf("delay with huge hint = %v, want ceiling 4s", got)
		}
	})
}

// TestDomainsConvergeIndependently verifies one domain's penalties do not
// leak into another's delay.
func TestDomainsConvergeIndependently(t *testing.T) {
	t.Parallel()

	tr := New(WithDelayBounds(time.Second, time.Minute))
	for i := 0; i < 4; i++ {
		tr.Record("hostile.com", SignalBlocked, 0)
	}
	if got := tr.Delay("calm.com"); got != time.Second {
		t.Errorf("calm.com delay = %v, want untouched 1s", got)
	}
	if got := tr.Delay("hostile.com"); got != 16*time.Second {
		t.Errorf("hostile.com delay = %v, want 16s", got)
	}
}

// TestBlockStreak verifies the consecutive-block counter resets on success.
func TestBlockStreak(t *testing.T) {
	t.Parallel()

	tr := New(WithDelayBounds(time.Second, time.Minute))
	tr.Record("a.com", SignalBlocked, 0)
	tr.Record("a.com", SignalSoftBlock, 0)
	if got := tr.BlockStreak("a.com"); got != 2 {
		t.Errorf("block streak = %d, want 2", got)
	}
	tr.Record("a.com", SignalSuccess, 0)
	if got := tr.BlockStreak("a.com"); got != 0 {
		t.Errorf("block streak after success = %d, want 0", got)
	}
}

// TestPerDomainConcurrency verifies in-flight leases for one domain never
// exceed the per-domain cap.
func TestPerDomainConcurrency(t *testing.T) {
	t.Parallel()

	const perDomain = 2
	tr := fastThrottle(WithPerDomainLimit(perDomain), WithGlobalLimit(16))
	ctx := context.Background()

	var inFlight, maxSeen atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := tr.Acquire(ctx, "example.com")
			if err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			n := inFlight.Add(1)
			for {
				prev := maxSeen.Load()
				if n <= prev || maxSeen.CompareAndSwap(prev, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			lease.Release()
		}()
	}
	wg.Wait()

	if maxSeen.Load() > perDomain {
		t.Errorf("observed %d concurrent leases, cap is %d", maxSeen.Load(), perDomain)
	}
}

// TestGlobalConcurrency verifies the global cap holds across domains.
func TestGlobalConcurrency(t *testing.T) {
	t.Parallel()

	const globalCap = 3
	tr := fastThrottle(WithPerDomainLimit(4), WithGlobalLimit(globalCap))
	ctx := context.Background()

	var inFlight, maxSeen atomic.Int32
	var wg sync.WaitGroup
	domains := []string{"a.com", "b.com", "c.com", "d.com", "e.com"}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(domain string) {
			defer wg.Done()
			lease, err := tr.Acquire(ctx, domain)
			if err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			n := inFlight.Add(1)
			for {
				prev := maxSeen.Load()
				if n <= prev || maxSeen.CompareAndSwap(prev, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			lease.Release()
		}(domains[i%len(domains)])
	}
	wg.Wait()

	if maxSeen.Load() > globalCap {
		t.Errorf("observed %d concurrent leases, global cap is %d", maxSeen.Load(), globalCap)
	}
}

// TestAcquireCancellation verifies a cancelled context aborts a blocked
// Acquire and leaks no slots.
func TestAcquireCancellation(t *testing.T) {
	t.Parallel()

	tr := fastThrottle(WithPerDomainLimit(1), WithGlobalLimit(1))

	lease, err := tr.Acquire(context.Background(), "a.com")
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := tr.Acquire(ctx, "a.com"); err == nil {
		t.Fatal("expected second acquire to fail on cancelled context")
	}

	lease.Release()

	// The slot freed by Release must be acquirable again.
	lease2, err := tr.Acquire(context.Background(), "a.com")
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	lease2.Release()
}

// TestLeaseReleaseIdempotent verifies double release does not corrupt
// slot accounting.
func TestLeaseReleaseIdempotent(t *testing.T) {
	t.Parallel()

	tr := fastThrottle(WithPerDomainLimit(1), WithGlobalLimit(1))
	lease, err := tr.Acquire(context.Background(), "a.com")
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	lease.Release()
	lease.Release()

	lease2, err := tr.Acquire(context.Background(), "a.com")
	if err != nil {
		t.Fatalf("acquire after double release failed: %v", err)
	}
	lease2.Release()
}

// TestSiteFloorOverride verifies a per-site floor raises both the initial
// delay and the convergence floor.
func TestSiteFloorOverride(t *testing.T) {
	t.Parallel()

	tr := New(
		WithDelayBounds(time.Second, time.Minute),
		WithSiteFloors(map[string]time.Duration{"slow.com": 5 * time.Second}),
	)
	if got := tr.Delay("slow.com"); got != 5*time.Second {
		t.Errorf("initial delay = %v, want site floor 5s", got)
	}
	tr.Record("slow.com", SignalSuccess, 0)
	if got := tr.Delay("slow.com"); got != 5*time.Second {
		t.Errorf("delay after success = %v, want to stay at site floor 5s", got)
	}
	if got := tr.Delay("normal.com"); got != time.Second {
		t.Errorf("normal.com delay = %v, want global floor 1s", got)
	}
}

// TestRaiseFloor verifies runtime floor raises (robots Crawl-delay).
func TestRaiseFloor(t *testing.T) {
	t.Parallel()

	t.Run("raises delay and floor", func(t *testing.T) {
		t.Parallel()

		tr := New(WithDelayBounds(time.Second, time.Minute))
		tr.RaiseFloor("polite.com", 4*time.Second)
		if got := tr.Delay("polite.com"); got != 4*time.Second {
			t.Errorf("delay = %v, want raised floor 4s", got)
		}
		// Successes must not converge below the raised floor.
		tr.Record("polite.com", SignalSuccess, 0)
		if got := tr.Delay("polite.com"); got != 4*time.Second {
			t.Errorf("delay after success = %v, want 4s", got)
		}
	})

	t.Run("never lowers an existing floor", func(t *testing.T) {
		t.Parallel()

		tr := New(
			WithDelayBounds(time.Second, time.Minute),
			WithSiteFloors(map[string]time.Duration{"slow.com": 5 * time.Second}),
		)
		tr.RaiseFloor("slow.com", 2*time.Second)
		if got := tr.Delay("slow.com"); got != 5*time.Second {
			t.Errorf("delay = %v, want unchanged site floor 5s", got)
		}
	})

	t.Run("clamps to the ceiling", func(t *testing.T) {
		t.Parallel()

		tr := New(WithDelayBounds(time.Second, 10*time.Second))
		tr.RaiseFloor("a.com", time.Hour)
		if got := tr.Delay("a.com"); got != 10*time.Second {
			t.Errorf("delay = %v, want ceiling 10s", got)
		}
	})

	t.Run("ignores non-positive values", func(t *testing.T) {
		t.Parallel()

		tr := New(WithDelayBounds(time.Second, time.Minute))
		tr.RaiseFloor("a.com", 0)
		if got := tr.Delay("a.com"); got != time.Second {
			t.Errorf("delay = %v, want untouched 1s", got)
		}
	})

	t.Run("does not shrink a grown delay", func(t *testing.T) {
		t.Parallel()

		tr := New(WithDelayBounds(time.Second, time.Minute))
		for i := 0; i < 3; i++ {
			tr.Record("a.com", SignalBlocked, 0)
		}
		tr.RaiseFloor("a.com", 2*time.Second)
		if got := tr.Delay("a.com"); got != 8*time.Second {
			t.Errorf("delay = %v, want 8s kept above new floor", got)
		}
	})
}

// TestSaturatedDomainDoesNotHoldGlobalSlot verifies the acquisition
// order: a worker queued behind a saturated domain must not occupy a
// global slot while it waits, or one slow domain could starve global
// admission for everyone else.
func TestSaturatedDomainDoesNotHoldGlobalSlot(t *testing.T) {
	t.Parallel()

	tr := fastThrottle(WithPerDomainLimit(1), WithGlobalLimit(2))

	lease, err := tr.Acquire(context.Background(), "slow.com")
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	defer lease.Release()

	// Queue a second worker behind slow.com's single domain slot. It
	// blocks for the whole test.
	blockedCtx, cancelBlocked := context.WithCancel(context.Background())
	defer cancelBlocked()
	started := make(chan struct{})
	go func() {
		close(started)
		if l, err := tr.Acquire(blockedCtx, "slow.com"); err == nil {
			l.Release()
		}
	}()
	<-started
	time.Sleep(20 * time.Millisecond)

	// One global slot is held by the live lease; the queued worker must
	// not be holding the other, so a different domain gets through.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	fast, err := tr.Acquire(ctx, "fast.com")
	if err != nil {
		t.Fatalf("fast.com starved behind a saturated domain: %v", err)
	}
	fast.Release()
}
