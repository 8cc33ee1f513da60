package identity

import (
	"hash/fnv"
	"sync"
)

// Pool holds a fixed ring of outbound identities and assigns one per
// domain. Assignment is deterministic so repeated fetches to the same
// domain present a consistent identity; rotation advances a per-domain
// cursor through the ring when a domain starts blocking.
//
// Design decision: the base assignment is a stable hash rather than
// round-robin because it must survive process restarts — a resumed
// session should show each domain the same face it saw before, without
// persisting any pool state.
type Pool struct {
	profiles []Fingerprint

	mu sync.Mutex
	// offsets holds the per-domain rotation cursor. Absent means zero,
	// i.e. the domain still uses its base assignment.
	offsets map[string]int
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithProfiles replaces the built-in fingerprint set.
// Useful for tests and for deployments with custom profiles.
func WithProfiles(profiles []Fingerprint) PoolOption {
	return func(p *Pool) {
		if len(profiles) > 0 {
			p.profiles = profiles
		}
	}
}

// WithPoolSize limits the ring to the first n built-in profiles.
// Values outside [1, len(builtin)] leave the full set in place.
func WithPoolSize(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 && n < len(p.profiles) {
			p.profiles = p.profiles[:n]
		}
	}
}

// NewPool creates an identity pool over the built-in fingerprints.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		profiles: BuiltinFingerprints(),
		offsets:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size returns the number of profiles in the ring.
func (p *Pool) Size() int {
	return len(p.profiles)
}

// Assign returns the identity currently assigned to domain: the stable
// base slot plus any rotation offset accumulated from blocks.
func (p *Pool) Assign(domain string) Fingerprint {
	p.mu.Lock()
	offset := p.offsets[domain]
	p.mu.Unlock()
	return p.profiles[(p.baseSlot(domain)+offset)%len(p.profiles)]
}

// Rotate advances the domain's cursor and returns the new identity.
// When the ring has more than one profile, the returned identity always
// differs from the one Assign returned before the call.
func (p *Pool) Rotate(domain string) Fingerprint {
	p.mu.Lock()
	p.offsets[domain]++
	offset := p.offsets[domain]
	p.mu.Unlock()
	return p.profiles[(p.baseSlot(domain)+offset)%len(p.profiles)]
}

// baseSlot maps a domain to its stable starting slot in the ring.
func (p *Pool) baseSlot(domain string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(domain)) //nolint:errcheck // fnv.Write never fails
	return int(h.Sum32() % uint32(len(p.profiles)))
}
