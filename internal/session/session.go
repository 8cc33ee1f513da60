package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pagetrawl/pagetrawl/internal/checkpoint"
	"github.com/pagetrawl/pagetrawl/internal/dedup"
	"github.com/pagetrawl/pagetrawl/internal/extract"
	"github.com/pagetrawl/pagetrawl/internal/fetch"
	"github.com/pagetrawl/pagetrawl/internal/frontier"
	"github.com/pagetrawl/pagetrawl/internal/model"
	"github.com/pagetrawl/pagetrawl/internal/report"
	"github.com/pagetrawl/pagetrawl/internal/search"
	"github.com/pagetrawl/pagetrawl/internal/store"
	"github.com/pagetrawl/pagetrawl/internal/throttle"
)

// Dispatcher turns a target into exactly one outcome. Satisfied by
// fetch.Scheduler; tests substitute fakes.
type Dispatcher interface {
	Dispatch(ctx context.Context, target model.Target) fetch.Outcome
}

// Extractor parses a fetched payload. Satisfied by extract.Extract.
type Extractor func(body []byte, contentType, pageURL string) (*extract.Result, error)

// PermissionOracle answers whether a URL may be fetched. Satisfied by
// robots.Oracle; nil means everything is allowed.
type PermissionOracle interface {
	Allowed(ctx context.Context, rawURL string) bool
}

// CircuitRenewer requests a fresh egress identity. Satisfied by
// tor.Renewer; nil disables periodic renewal.
type CircuitRenewer interface {
	Renew(ctx context.Context) error
}

// DelayAdvisor is an optional PermissionOracle extension surfacing a
// site's requested crawl delay (robots.txt Crawl-delay). When the oracle
// implements it and a throttle is attached, the advised delay raises the
// domain's pacing floor.
type DelayAdvisor interface {
	CrawlDelay(rawURL string) time.Duration
}

// Orchestrator drives one crawl session: it pulls targets from the
// frontier, dispatches them concurrently, routes successful payloads
// through extraction, dedup, and persistence, folds every terminal
// outcome into the checkpoint, and triggers periodic circuit renewal.
//
// Design decision: the snapshot has a single logical owner. Worker
// goroutines never touch it directly; every completion is folded under
// one mutex and persisted from the same critical section, so a
// read-modify-write race can never lose an update.
type Orchestrator struct {
	frontier   *frontier.Frontier
	dispatcher Dispatcher
	extractor  Extractor
	dedup      *dedup.Deduplicator
	writer     store.Writer
	manager    *checkpoint.Manager
	oracle     PermissionOracle
	renewer    CircuitRenewer
	throttle   *throttle.Throttle
	logger     *slog.Logger

	concurrency   int
	maxRetries    int
	renewInterval int
	minWordCount  int
	torEnabled    bool

	mu          sync.Mutex
	snap        *checkpoint.Snapshot
	retryQueue  []model.Target
	completions int
	seeds       int
	resumed     bool
	domains     map[string]*domainStats
}

// domainStats accumulates per-domain aggregates for the final report.
type domainStats struct {
	fetched int
	blocks  int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency sets the number of concurrent dispatch workers.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithMaxRetries bounds how many terminal failures a target may
// accumulate across the whole session before it is abandoned.
func WithMaxRetries(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxRetries = n
		}
	}
}

// WithRenewInterval sets how many completed targets trigger a circuit
// renewal.
func WithRenewInterval(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.renewInterval = n
		}
	}
}

// WithMinWordCount drops extracted pages with fewer words than n. Thin
// pages are completed but not persisted.
func WithMinWordCount(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.minWordCount = n
		}
	}
}

// WithPermissionOracle sets the robots oracle.
func WithPermissionOracle(oracle PermissionOracle) Option {
	return func(o *Orchestrator) {
		o.oracle = oracle
	}
}

// WithRenewer sets the circuit renewer.
func WithRenewer(renewer CircuitRenewer) Option {
	return func(o *Orchestrator) {
		o.renewer = renewer
	}
}

// WithTorEnabled records that fetches are routed through Tor so the
// final report can say so. Renewal is configured separately; a session
// can use Tor without a control port.
func WithTorEnabled(enabled bool) Option {
	return func(o *Orchestrator) {
		o.torEnabled = enabled
	}
}

// WithThrottle lets the final report include each domain's converged
// delay and lets robots Crawl-delay directives raise a domain's pacing
// floor. Pacing itself still belongs to the dispatcher.
func WithThrottle(th *throttle.Throttle) Option {
	return func(o *Orchestrator) {
		o.throttle = th
	}
}

// WithLogger sets the orchestrator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an Orchestrator. Defaults: 10 workers, 3 retries per
// target, renewal every 20 completions, no minimum word count.
func New(
	fr *frontier.Frontier,
	dispatcher Dispatcher,
	extractor Extractor,
	dd *dedup.Deduplicator,
	writer store.Writer,
	manager *checkpoint.Manager,
	opts ...Option,
) (*Orchestrator, error) {
	o := &Orchestrator{
		frontier:      fr,
		dispatcher:    dispatcher,
		extractor:     extractor,
		dedup:         dd,
		writer:        writer,
		manager:       manager,
		concurrency:   10,
		maxRetries:    3,
		renewInterval: 20,
		domains:       make(map[string]*domainStats),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	snap, err := manager.Load()
	if err != nil {
		return nil, err
	}
	o.snap = snap
	o.restore()
	return o, nil
}

// restore replays checkpoint state into the live components. Only
// targets that are finished for good are marked seen in the frontier:
// completed targets and targets that exhausted their retry budget.
// Everything else must remain admissible so an interrupted session can
// finish its pending work.
func (o *Orchestrator) restore() {
	var done []string
	for key := range o.snap.Completed {
		done = append(done, key)
	}
	for key, f := range o.snap.Failed {
		if f.Count >= o.maxRetries {
			done = append(done, key)
		}
	}
	if len(done) > 0 {
		o.frontier.MarkSeen(done)
		o.resumed = true
	}
	if len(o.snap.Seen) > 0 {
		o.resumed = true
	}
	o.dedup.Restore(o.snap.Dedup.URLHashes, o.snap.Dedup.ContentHashes, o.snap.Dedup.FuzzySignatures)
}

// Seed resolves seed queries through the provider and admits the
// resulting targets. Seeds that are plain URLs resolve to themselves
// when the provider chain includes search.DirectProvider.
func (o *Orchestrator) Seed(ctx context.Context, provider search.Provider, seeds []string) error {
	var targets []model.Target
	for _, seed := range seeds {
		urls, err := provider.Query(ctx, seed)
		if err != nil {
			return fmt.Errorf("resolve seed %q: %w", seed, err)
		}
		if len(urls) == 0 {
			o.logger.Warn("seed yielded no candidates", "seed", seed)
			continue
		}
		for _, u := range urls {
			t, ok := model.NewTarget(u)
			if !ok {
				o.logger.Warn("skipping unparseable candidate", "seed", seed, "url", u)
				continue
			}
			t.Seed = seed
			targets = append(targets, t)
		}
	}

	admitted := o.frontier.Seed(targets)
	o.mu.Lock()
	o.seeds = len(seeds)
	for _, t := range targets {
		o.snap.MarkSeen(t.Key())
	}
	o.mu.Unlock()

	o.logger.Info("seeds loaded", "seeds", len(seeds), "candidates", len(targets), "admitted", admitted)
	return nil
}

// Run executes the session until the frontier is exhausted or the
// context is done. It returns the session summary; the summary is valid
// even when the session was cut short.
func (o *Orchestrator) Run(ctx context.Context) (*report.Summary, error) {
	startedAt := time.Now()

	eg := &errgroup.Group{}
	eg.SetLimit(o.concurrency)

	var (
		inflightMu sync.Mutex
		inflight   int
	)
	// wake is poked after every completion so the pull loop rechecks the
	// frontier: a finished worker may have fed new links or requeued a
	// failed target.
	wake := make(chan struct{}, 1)

	for {
		if ctx.Err() != nil {
			break
		}

		target, ok := o.nextTarget()
		if !ok {
			inflightMu.Lock()
			idle := inflight == 0
			inflightMu.Unlock()
			if idle {
				break
			}
			select {
			case <-wake:
			case <-ctx.Done():
			}
			continue
		}

		if o.skip(ctx, target) {
			continue
		}

		inflightMu.Lock()
		inflight++
		inflightMu.Unlock()

		eg.Go(func() error {
			defer func() {
				inflightMu.Lock()
				inflight--
				inflightMu.Unlock()
				select {
				case wake <- struct{}{}:
				default:
				}
			}()
			o.process(ctx, target)
			return nil
		})
	}

	_ = eg.Wait() //nolint:errcheck // workers never return errors

	o.mu.Lock()
	if err := o.manager.Save(o.snap); err != nil {
		o.logger.Error("final checkpoint save failed", "error", err)
	}
	summary := o.buildSummary(startedAt)
	o.mu.Unlock()

	return summary, ctx.Err()
}

// nextTarget pulls from the retry queue first, then the frontier.
// Retries go first so a transiently failed target is not starved behind
// a deep frontier.
func (o *Orchestrator) nextTarget() (model.Target, bool) {
	o.mu.Lock()
	if len(o.retryQueue) > 0 {
		t := o.retryQueue[0]
		o.retryQueue = o.retryQueue[1:]
		o.mu.Unlock()
		return t, true
	}
	o.mu.Unlock()
	return o.frontier.Next()
}

// skip filters targets that must not be dispatched: already completed in
// a previous session, or disallowed by the permission oracle.
func (o *Orchestrator) skip(ctx context.Context, target model.Target) bool {
	o.mu.Lock()
	completed := o.snap.IsCompleted(target.Key())
	o.mu.Unlock()
	if completed {
		o.logger.Debug("skipping completed target", "url", target.URL)
		return true
	}
	if o.oracle != nil {
		if !o.oracle.Allowed(ctx, target.URL) {
			o.logger.Debug("skipping disallowed target", "url", target.URL)
			o.fold(func() {
				o.snap.MarkSeen(target.Key())
			})
			return true
		}
		if o.throttle != nil {
			if adv, ok := o.oracle.(DelayAdvisor); ok {
				if d := adv.CrawlDelay(target.URL); d > 0 {
					o.throttle.RaiseFloor(target.Domain, d)
				}
			}
		}
	}
	return false
}

// process runs one target to its terminal outcome and folds the result.
func (o *Orchestrator) process(ctx context.Context, target model.Target) {
	outcome := o.dispatcher.Dispatch(ctx, target)

	switch outcome.Status {
	case fetch.StatusSuccess:
		o.handleSuccess(outcome)
	case fetch.StatusBlocked, fetch.StatusNetworkError:
		o.handleTransientFailure(target, outcome)
	case fetch.StatusPermanentFailure:
		o.handlePermanentFailure(target, outcome)
	}

	if outcome.Status == fetch.StatusSuccess {
		o.maybeRenew(ctx)
	}
}

// handleSuccess routes the payload through extraction, dedup, and the
// writer, feeds discovered links, and marks the target complete.
func (o *Orchestrator) handleSuccess(outcome fetch.Outcome) {
	target := outcome.Target

	res, err := o.extractor(outcome.Body, outcome.ContentType, target.URL)
	if err != nil {
		// Extraction failures are not retryable: refetching the same
		// payload will fail the same way.
		o.logger.Warn("extraction failed", "url", target.URL, "error", err)
		o.fold(func() {
			o.snap.MarkSeen(target.Key())
			o.snap.MarkFailed(target.Key(), "extract: "+err.Error())
			o.snap.Stats.Failed++
		})
		return
	}

	admitted := o.frontier.Feed(target, res.Links)

	var verdict dedup.Verdict
	var persistErr error
	thin := o.minWordCount > 0 && res.WordCount < o.minWordCount
	if !thin {
		verdict = o.dedup.CheckAndRegister(target.URL, res.Text)
		if verdict == dedup.Accepted {
			record := model.NewRecord(target, res.Title, res.Text, res.WordCount, dedup.ContentHash(res.Text))
			persistErr = o.writer.Persist(record)
		}
	}

	if persistErr != nil {
		// Roll the registration back before requeueing, otherwise the
		// retry would be rejected as a duplicate of the page that was
		// never stored.
		o.dedup.Unregister(target.URL, res.Text)
		o.logger.Error("persist failed", "url", target.URL, "error", persistErr)
		o.handleTransientFailure(target, fetch.Outcome{
			Target: target,
			Status: fetch.StatusNetworkError,
			Reason: "persist: " + persistErr.Error(),
		})
		return
	}

	o.fold(func() {
		o.snap.MarkSeen(target.Key())
		o.snap.MarkCompleted(target.Key())
		o.snap.Stats.Fetched++
		o.completions++
		o.stats(target.Domain).fetched++

		switch {
		case thin:
			o.logger.Debug("thin page dropped", "url", target.URL, "words", res.WordCount)
		case verdict == dedup.Accepted:
			o.snap.Stats.Persisted++
			urlHashes, contentHashes, signatures := o.dedup.Export()
			o.snap.Dedup = checkpoint.DedupState{
				URLHashes:       urlHashes,
				ContentHashes:   contentHashes,
				FuzzySignatures: signatures,
			}
		default:
			o.snap.Stats.Duplicates++
			o.logger.Debug("duplicate rejected", "url", target.URL, "reason", verdict.String())
		}
	})

	o.logger.Info("target completed",
		"url", target.URL,
		"depth", target.Depth,
		"words", res.WordCount,
		"links_admitted", admitted,
		"verdict", verdict.String(),
	)
}

// handleTransientFailure applies the session-level retry bound.
func (o *Orchestrator) handleTransientFailure(target model.Target, outcome fetch.Outcome) {
	o.fold(func() {
		o.snap.MarkSeen(target.Key())
		count := o.snap.MarkFailed(target.Key(), outcome.Reason)
		if outcome.Status == fetch.StatusBlocked {
			o.snap.Stats.Blocked++
			o.stats(target.Domain).blocks++
		}
		if count < o.maxRetries {
			o.retryQueue = append(o.retryQueue, target)
			o.logger.Debug("target requeued",
				"url", target.URL,
				"attempt", count,
				"reason", outcome.Reason,
			)
			return
		}
		o.snap.Stats.Failed++
		o.logger.Warn("target abandoned after retries",
			"url", target.URL,
			"attempts", count,
			"reason", outcome.Reason,
		)
	})
}

// handlePermanentFailure records a target that is not worth retrying.
func (o *Orchestrator) handlePermanentFailure(target model.Target, outcome fetch.Outcome) {
	o.fold(func() {
		o.snap.MarkSeen(target.Key())
		// Jump the count straight to the bound so a resumed session does
		// not retry what this one already declared hopeless.
		for o.snap.FailureCount(target.Key()) < o.maxRetries {
			o.snap.MarkFailed(target.Key(), outcome.Reason)
		}
		o.snap.Stats.Failed++
		if outcome.HTTPStatus == 403 || outcome.HTTPStatus == 429 || outcome.HTTPStatus == 503 {
			o.snap.Stats.Blocked++
			o.stats(target.Domain).blocks++
		}
	})
	o.logger.Warn("target failed permanently", "url", target.URL, "reason", outcome.Reason)
}

// maybeRenew triggers a circuit renewal every renewInterval completions.
func (o *Orchestrator) maybeRenew(ctx context.Context) {
	if o.renewer == nil {
		return
	}
	o.mu.Lock()
	due := o.completions > 0 && o.completions%o.renewInterval == 0
	o.mu.Unlock()
	if !due {
		return
	}
	if err := o.renewer.Renew(ctx); err != nil {
		// Renewal is opportunistic; the session continues on the old
		// circuit.
		o.logger.Warn("circuit renewal failed", "error", err)
	}
}

// fold applies a snapshot mutation and persists it, all under the
// orchestrator's lock.
func (o *Orchestrator) fold(mutate func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	mutate()
	if err := o.manager.Save(o.snap); err != nil {
		o.logger.Error("checkpoint save failed", "error", err)
	}
}

// stats returns the domain's aggregate, creating it on first use.
// Caller holds o.mu.
func (o *Orchestrator) stats(domain string) *domainStats {
	st, ok := o.domains[domain]
	if !ok {
		st = &domainStats{}
		o.domains[domain] = st
	}
	return st
}

// buildSummary assembles the final report. Caller holds o.mu.
func (o *Orchestrator) buildSummary(startedAt time.Time) *report.Summary {
	s := &report.Summary{
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Seeds:      o.seeds,
		Admitted:   o.frontier.Admitted(),
		Fetched:    o.snap.Stats.Fetched,
		Persisted:  o.snap.Stats.Persisted,
		Duplicates: o.snap.Stats.Duplicates,
		Failed:     o.snap.Stats.Failed,
		Blocked:    o.snap.Stats.Blocked,
		DedupMode:  o.dedup.Mode(),
		Resumed:    o.resumed,
		TorEnabled: o.torEnabled,
	}
	for domain, st := range o.domains {
		d := report.DomainSummary{
			Domain:  domain,
			Fetched: st.fetched,
			Blocks:  st.blocks,
		}
		if o.throttle != nil {
			d.FinalDelay = o.throttle.Delay(domain)
		}
		s.Domains = append(s.Domains, d)
	}
	sort.Slice(s.Domains, func(i, j int) bool {
		if s.Domains[i].Fetched != s.Domains[j].Fetched {
			return s.Domains[i].Fetched > s.Domains[j].Fetched
		}
		return s.Domains[i].Domain < s.Domains[j].Domain
	})
	return s
}
