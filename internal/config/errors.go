package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoSeeds is returned when neither seed URLs nor a seeds file is given.
	ErrNoSeeds = errors.New("no seeds specified: provide seed URLs or use --seeds-file")

	// ErrInvalidConcurrency is returned when the global concurrency cap is
	// not positive. Zero would mean no fetching at all.
	ErrInvalidConcurrency = errors.New("invalid max concurrent total: must be positive")

	// ErrInvalidPerDomainConcurrency is returned when the per-domain cap is
	// not positive or exceeds the global cap.
	ErrInvalidPerDomainConcurrency = errors.New("invalid per-domain concurrency: must be positive and not exceed the global cap")

	// ErrInvalidDelayBounds is returned when the delay floor is not positive
	// or the ceiling is below the floor.
	ErrInvalidDelayBounds = errors.New("invalid delay bounds: floor must be positive and ceiling must not be below floor")

	// ErrInvalidDepth is returned when the crawl depth is negative.
	ErrInvalidDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidRetries is returned when the per-target retry bound is negative.
	ErrInvalidRetries = errors.New("invalid max retries per target: must be non-negative")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid fetch timeout: must be positive")

	// ErrInvalidFuzzyThreshold is returned when the near-duplicate threshold
	// is outside (0, 1].
	ErrInvalidFuzzyThreshold = errors.New("invalid fuzzy threshold: must be in (0, 1]")

	// ErrInvalidPermutations is returned when the MinHash signature width is
	// too small to give a meaningful similarity estimate.
	ErrInvalidPermutations = errors.New("invalid permutation count: must be at least 16")

	// ErrInvalidShingleSize is returned when the shingle size is not positive.
	ErrInvalidShingleSize = errors.New("invalid shingle size: must be positive")

	// ErrConflictingResetModes is returned when both --reset and
	// --reset-partial are specified. They mean different things and cannot
	// be combined.
	ErrConflictingResetModes = errors.New("conflicting reset modes: --reset and --reset-partial cannot be used together")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified for the session report.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
