package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are tuned for polite harvesting of ordinary news and
// corporate sites; hostile domains converge to their own rates via the
// adaptive throttle, so the defaults only need to be safe starting points.
const (
	// DefaultMaxConcurrentTotal caps in-flight fetches across the whole
	// session. Ten concurrent requests keeps throughput reasonable without
	// looking like a flood from a single egress address.
	DefaultMaxConcurrentTotal = 10

	// DefaultMaxConcurrentPerDomain caps in-flight fetches to one domain.
	// Three is low enough that even an aggressive rate limiter on the
	// remote side rarely triggers on concurrency alone.
	DefaultMaxConcurrentPerDomain = 3

	// DefaultDelayFloor is the minimum (and initial) per-domain delay.
	// Consecutive successes halve the delay down to this floor.
	DefaultDelayFloor = 500 * time.Millisecond

	// DefaultDelayCeiling bounds how far blocked responses can push the
	// per-domain delay. One minute is long enough to outlast most
	// short-window rate limiters.
	DefaultDelayCeiling = 60 * time.Second

	// DefaultMaxDepth limits crawl recursion from each seed.
	// Depth 0 fetches only the seed page itself.
	DefaultMaxDepth = 2

	// DefaultMaxPagesPerDomain prevents runaway crawling on link-dense
	// sites.
	DefaultMaxPagesPerDomain = 50

	// DefaultMaxPagesPerDepth bounds frontier fan-out at each depth across
	// all domains. Without this a single link farm at depth 1 can consume
	// the whole session budget.
	DefaultMaxPagesPerDepth = 1000

	// DefaultMaxPagesTotal is the global session page cap.
	DefaultMaxPagesTotal = 5000

	// DefaultMaxRetriesPerTarget bounds how many times a failed target is
	// re-dispatched across the whole session before it is recorded as
	// permanently failed.
	DefaultMaxRetriesPerTarget = 3

	// DefaultFetchTimeout is the per-request timeout. Generous because
	// fetches may be routed through Tor.
	DefaultFetchTimeout = 20 * time.Second

	// DefaultMinWordCount drops pages whose extracted text is too short to
	// be a real article (navigation shells, cookie walls, error pages).
	DefaultMinWordCount = 100

	// DefaultMaxBodySize limits response bodies to protect memory.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultFuzzyThreshold is the Jaccard similarity above which two
	// pages are treated as near-duplicates.
	DefaultFuzzyThreshold = 0.85

	// DefaultNumPermutations is the MinHash signature width.
	DefaultNumPermutations = 128

	// DefaultShingleSize is the word n-gram size for MinHash shingling.
	DefaultShingleSize = 3

	// DefaultRenewInterval is the number of completed targets between
	// egress identity renewals (Tor circuit rotation).
	DefaultRenewInterval = 20

	// DefaultTorProxyAddress is the standard Tor SOCKS5 proxy address.
	DefaultTorProxyAddress = "127.0.0.1:9050"

	// DefaultTorStartupTimeout bounds embedded Tor daemon bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultCheckpointFile is the checkpoint file name inside the data dir.
	DefaultCheckpointFile = "checkpoint.json"

	// AppName is the application name used for XDG directory paths.
	AppName = "pagetrawl"
)

// Config holds all configuration for a harvest session.
// It is constructed once at startup from CLI flags plus the optional YAML
// sites file, validated, and then passed by reference to every component.
// Nothing mutates it after Validate; stealth variants are built as new
// values via ApplyStealth.
type Config struct {
	// SeedsFile is the path to a file of seed URLs, one per line.
	// Lines starting with '#' and blank lines are ignored.
	SeedsFile string

	// Seeds is the list of seed URLs to harvest. Populated from positional
	// arguments and/or SeedsFile.
	Seeds []string

	// ExcludeFile is an optional file of domains to exclude, one per line.
	ExcludeFile string

	// MaxConcurrentTotal caps in-flight fetches across all domains.
	MaxConcurrentTotal int

	// MaxConcurrentPerDomain caps in-flight fetches per domain.
	MaxConcurrentPerDomain int

	// DelayFloor is the minimum and initial per-domain delay.
	DelayFloor time.Duration

	// DelayCeiling is the maximum per-domain delay.
	DelayCeiling time.Duration

	// FollowLinks enables crawling beyond the seed pages. When false the
	// frontier only ever produces depth-0 targets.
	FollowLinks bool

	// MaxDepth is the maximum crawl depth from each seed.
	MaxDepth int

	// MaxPagesPerDomain caps accepted targets per domain.
	MaxPagesPerDomain int

	// MaxPagesPerDepth caps accepted targets per depth across all domains.
	MaxPagesPerDepth int

	// MaxPagesTotal is the global page cap for the session.
	MaxPagesTotal int

	// MaxRetriesPerTarget bounds session-level re-dispatches of a failed
	// target before it is recorded as permanently failed.
	MaxRetriesPerTarget int

	// FetchTimeout is the timeout for a single fetch attempt.
	FetchTimeout time.Duration

	// MaxBodySize limits the response body size read per fetch.
	MaxBodySize int64

	// MinWordCount drops extracted pages shorter than this many words.
	MinWordCount int

	// RespectRobots enables robots.txt checks before fetching.
	RespectRobots bool

	// FuzzyDedup enables the MinHash near-duplicate layer. When false the
	// deduplicator runs in exact-only mode and says so.
	FuzzyDedup bool

	// FuzzyThreshold is the near-duplicate similarity threshold.
	FuzzyThreshold float64

	// NumPermutations is the MinHash signature width.
	NumPermutations int

	// ShingleSize is the word n-gram size used for shingling.
	ShingleSize int

	// IdentityPoolSize limits how many fingerprint profiles the identity
	// ring uses. Zero or a value larger than the built-in set means all.
	IdentityPoolSize int

	// RenewInterval is the number of completed targets between egress
	// identity renewals. Zero disables periodic renewal.
	RenewInterval int

	// SessionDeadline bounds the whole session. Zero means no deadline.
	SessionDeadline time.Duration

	// UseTor routes all fetches through a Tor SOCKS5 proxy.
	UseTor bool

	// TorProxyAddress is the SOCKS5 address of an external Tor daemon.
	TorProxyAddress string

	// TorControlAddress is the control port address used for circuit
	// renewal. Empty disables renewal for external Tor.
	TorControlAddress string

	// TorControlPassword authenticates against the control port.
	TorControlPassword string

	// UseEmbeddedTor starts an embedded Tor daemon instead of expecting an
	// external one. Implies UseTor.
	UseEmbeddedTor bool

	// TorStartupTimeout bounds embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// Resume loads the existing checkpoint before starting.
	Resume bool

	// ResetFull discards the checkpoint file entirely before the session.
	ResetFull bool

	// ResetPartial clears completed targets and counters but keeps seen
	// URLs, failure history, and dedup state, so a re-run can re-plan
	// without re-fetching known pages.
	ResetPartial bool

	// CheckpointPath is the checkpoint file location.
	CheckpointPath string

	// DataDir is the directory for the record database.
	DataDir string

	// JSONLPath is an optional JSON-lines output file for accepted records.
	JSONLPath string

	// ReportFile writes the end-of-session report to a file instead of stdout.
	ReportFile string

	// JSONReport selects JSON output for the session report.
	JSONReport bool

	// MarkdownReport selects Markdown output for the session report.
	MarkdownReport bool

	// Stealth reduces concurrency for low-profile harvesting.
	Stealth bool

	// Verbose enables slog.LevelDebug output.
	Verbose bool

	// SitesFilePath is the path to the optional YAML sites file.
	SitesFilePath string

	// Sites holds per-domain overrides loaded from the sites file.
	Sites *SitesFile
}

// NewConfig creates a Config with default values.
// Many defaults are non-zero, so relying on zero values would be wrong;
// this constructor also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		MaxConcurrentTotal:     DefaultMaxConcurrentTotal,
		MaxConcurrentPerDomain: DefaultMaxConcurrentPerDomain,
		DelayFloor:             DefaultDelayFloor,
		DelayCeiling:           DefaultDelayCeiling,
		MaxDepth:               DefaultMaxDepth,
		MaxPagesPerDomain:      DefaultMaxPagesPerDomain,
		MaxPagesPerDepth:       DefaultMaxPagesPerDepth,
		MaxPagesTotal:          DefaultMaxPagesTotal,
		MaxRetriesPerTarget:    DefaultMaxRetriesPerTarget,
		FetchTimeout:           DefaultFetchTimeout,
		MaxBodySize:            DefaultMaxBodySize,
		MinWordCount:           DefaultMinWordCount,
		RespectRobots:          true,
		FuzzyDedup:             true,
		FuzzyThreshold:         DefaultFuzzyThreshold,
		NumPermutations:        DefaultNumPermutations,
		ShingleSize:            DefaultShingleSize,
		RenewInterval:          DefaultRenewInterval,
		TorProxyAddress:        DefaultTorProxyAddress,
		TorStartupTimeout:      DefaultTorStartupTimeout,
		CheckpointPath:         filepath.Join(XDGDataDir(), DefaultCheckpointFile),
		DataDir:                XDGDataDir(),
	}
}

// ApplyStealth returns a copy of cfg with stealth overrides applied.
// The original Config is never mutated; callers that enable stealth get a
// fresh value with reduced concurrency and a higher delay floor.
func ApplyStealth(cfg *Config) *Config {
	if !cfg.Stealth {
		return cfg
	}
	out := *cfg
	out.MaxConcurrentTotal = 4
	out.MaxConcurrentPerDomain = 2
	if out.DelayFloor < time.Second {
		out.DelayFloor = time.Second
	}
	return &out
}

// XDGDataDir returns the XDG data directory for pagetrawl.
// On Linux: ~/.local/share/pagetrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pagetrawl.
// On Linux: ~/.config/pagetrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns a specific error for the
// first problem found. Called once after flag parsing, before any work
// begins; a Validate failure is the only fatal configuration condition.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 && c.SeedsFile == "" {
		return ErrNoSeeds
	}
	if c.MaxConcurrentTotal <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxConcurrentPerDomain <= 0 || c.MaxConcurrentPerDomain > c.MaxConcurrentTotal {
		return ErrInvalidPerDomainConcurrency
	}
	if c.DelayFloor <= 0 || c.DelayCeiling < c.DelayFloor {
		return ErrInvalidDelayBounds
	}
	if c.MaxDepth < 0 {
		return ErrInvalidDepth
	}
	if c.MaxRetriesPerTarget < 0 {
		return ErrInvalidRetries
	}
	if c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.FuzzyDedup {
		if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 1 {
			return ErrInvalidFuzzyThreshold
		}
		if c.NumPermutations < 16 {
			return ErrInvalidPermutations
		}
		if c.ShingleSize <= 0 {
			return ErrInvalidShingleSize
		}
	}
	if c.ResetFull && c.ResetPartial {
		return ErrConflictingResetModes
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
