package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// contentPrefixLen bounds how much content feeds the exact-duplicate
// hash. Hashing a prefix instead of the whole body keeps the cost flat
// for large pages while still catching byte-identical republications.
const contentPrefixLen = 2000

// Verdict is the outcome of a dedup check.
type Verdict int

const (
	// Accepted means the content is new and has been registered.
	Accepted Verdict = iota

	// RejectedURL means the normalized URL was seen before.
	RejectedURL

	// RejectedExact means the content prefix hash was seen before.
	RejectedExact

	// RejectedNear means a previously registered document's fuzzy
	// signature matches above the similarity threshold.
	RejectedNear
)

// String returns the verdict label used in logs and reports.
func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case RejectedURL:
		return "url_duplicate"
	case RejectedExact:
		return "exact_duplicate"
	case RejectedNear:
		return "near_duplicate"
	default:
		return "unknown"
	}
}

// Deduplicator rejects duplicate pages in three layers: normalized URL
// hash, exact content-prefix hash, and a MinHash similarity index for
// near-duplicate text. All three stores are append-only for the life of
// a session and exportable for the checkpoint.
//
// Design decision: the fuzzy layer is an additive refinement. When it is
// disabled the component degrades to exact-only matching, and Mode makes
// the weaker guarantee visible instead of silently changing accept and
// reject behavior.
type Deduplicator struct {
	mu sync.Mutex

	urlHashes     map[string]bool
	contentHashes map[string]bool
	fuzzy         *fuzzyIndex
}

// Option configures a Deduplicator.
type Option func(*settings)

type settings struct {
	fuzzyEnabled bool
	threshold    float64
	numPerm      int
	shingleSize  int
}

// WithFuzzy toggles the near-duplicate layer.
func WithFuzzy(enabled bool) Option {
	return func(s *settings) {
		s.fuzzyEnabled = enabled
	}
}

// WithThreshold sets the Jaccard similarity threshold above which a
// document counts as a near duplicate.
func WithThreshold(t float64) Option {
	return func(s *settings) {
		if t > 0 && t <= 1 {
			s.threshold = t
		}
	}
}

// WithPermutations sets the number of MinHash permutations.
func WithPermutations(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.numPerm = n
		}
	}
}

// WithShingleSize sets the word-shingle width.
func WithShingleSize(k int) Option {
	return func(s *settings) {
		if k > 0 {
			s.shingleSize = k
		}
	}
}

// New creates a Deduplicator. Defaults: fuzzy enabled, threshold 0.85,
// 128 permutations, 3-word shingles.
func New(opts ...Option) *Deduplicator {
	s := settings{
		fuzzyEnabled: true,
		threshold:    0.85,
		numPerm:      128,
		shingleSize:  3,
	}
	for _, opt := range opts {
		opt(&s)
	}

	d := &Deduplicator{
		urlHashes:     make(map[string]bool),
		contentHashes: make(map[string]bool),
	}
	if s.fuzzyEnabled {
		d.fuzzy = newFuzzyIndex(s.threshold, s.numPerm, s.shingleSize)
	}
	return d
}

// Mode reports the active matching guarantee: "exact+fuzzy" when the
// near-duplicate layer is on, "exact-only" otherwise.
func (d *Deduplicator) Mode() string {
	if d.fuzzy != nil {
		return "exact+fuzzy"
	}
	return "exact-only"
}

// CheckAndRegister runs the three dedup layers in order and registers
// the document when accepted. URL-only rejection still registers the URL
// hash; content layers register only on acceptance so a different URL
// serving new content is never shadowed by a rejected sibling.
func (d *Deduplicator) CheckAndRegister(rawURL, content string) Verdict {
	d.mu.Lock()
	defer d.mu.Unlock()

	uh := hashString(NormalizeURL(rawURL))
	if d.urlHashes[uh] {
		return RejectedURL
	}
	d.urlHashes[uh] = true

	ch := hashString(prefix(content, contentPrefixLen))
	if d.contentHashes[ch] {
		return RejectedExact
	}

	if d.fuzzy != nil {
		sig := d.fuzzy.signature(content)
		if d.fuzzy.hasNearDuplicate(sig) {
			return RejectedNear
		}
		d.fuzzy.add(ch, sig)
	}

	d.contentHashes[ch] = true
	return Accepted
}

// Unregister rolls back a registration after the document failed to be
// persisted, so a retry of the same URL and content can be accepted
// again. The LSH index has no removal operation, but dropping the stored
// signature is enough: candidates it keeps returning no longer verify
// against anything.
func (d *Deduplicator) Unregister(rawURL, content string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.urlHashes, hashString(NormalizeURL(rawURL)))

	ch := hashString(prefix(content, contentPrefixLen))
	delete(d.contentHashes, ch)
	if d.fuzzy != nil {
		delete(d.fuzzy.signatures, ch)
	}
}

// ContentHash returns the exact-duplicate layer's hash of content: the
// hex sha256 of its first 2000 runes. Persisted records carry this hash
// so a record and the dedup store always agree on content identity.
func ContentHash(content string) string {
	return hashString(prefix(content, contentPrefixLen))
}

// CheckURL tests the URL layer alone without touching content state.
// The frontier uses it to skip fetching URLs already persisted by an
// earlier session.
func (d *Deduplicator) CheckURL(rawURL string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.urlHashes[hashString(NormalizeURL(rawURL))]
}

// Export returns copies of the three stores for checkpointing. Fuzzy
// signatures are hex encoded so the snapshot stays portable.
func (d *Deduplicator) Export() (urlHashes, contentHashes []string, signatures map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for h := range d.urlHashes {
		urlHashes = append(urlHashes, h)
	}
	for h := range d.contentHashes {
		contentHashes = append(contentHashes, h)
	}
	signatures = make(map[string]string)
	if d.fuzzy != nil {
		for key, sig := range d.fuzzy.signatures {
			signatures[key] = encodeSignature(sig)
		}
	}
	return urlHashes, contentHashes, signatures
}

// Restore reloads checkpointed state. Signatures that fail to decode are
// skipped; an undecodable entry only weakens near-duplicate detection
// for that one document, which is preferable to refusing to resume.
func (d *Deduplicator) Restore(urlHashes, contentHashes []string, signatures map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, h := range urlHashes {
		d.urlHashes[h] = true
	}
	for _, h := range contentHashes {
		d.contentHashes[h] = true
	}
	if d.fuzzy == nil {
		return
	}
	for key, hexSig := range signatures {
		sig, ok := decodeSignature(hexSig, d.fuzzy.numPerm)
		if !ok {
			continue
		}
		d.fuzzy.add(key, sig)
	}
}

// NormalizeURL canonicalizes a URL for identity comparison: the fragment
// is dropped, scheme and host are lowercased, and a trailing slash is
// stripped from the path. The scheme is kept because http and https
// variants of a page are served independently and may differ.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

// hashString returns the hex sha256 of s.
func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// prefix returns the first n runes of s.
func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// normalizeText prepares text for shingling: NFC normalization,
// lowercasing, and whitespace collapsing, so cosmetic differences do not
// defeat near-duplicate detection.
func normalizeText(s string) []string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	return strings.Fields(s)
}
