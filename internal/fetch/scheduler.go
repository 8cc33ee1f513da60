package fetch

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/pagetrawl/pagetrawl/internal/identity"
	"github.com/pagetrawl/pagetrawl/internal/model"
	"github.com/pagetrawl/pagetrawl/internal/throttle"
)

// Scheduler turns a crawl target into exactly one Outcome. It owns the
// per-dispatch mechanics: identity selection, throttle lease acquisition,
// the transport call, classification, and bounded in-call retries with
// identity rotation on blocking responses.
//
// Session-level retries of transient failures are not handled here; the
// orchestrator re-enqueues failed targets against its own bound. Keeping
// the two retry loops separate makes each one independently testable.
type Scheduler struct {
	transport Transport
	pool      *identity.Pool
	throttle  *throttle.Throttle
	timeout   time.Duration
	// blockedRetries is how many extra attempts a blocked response earns
	// within one dispatch, each with a freshly rotated identity.
	blockedRetries int
	logger         *slog.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithBlockedRetries sets how many in-call retries a blocked response
// earns. Zero disables in-call retrying.
func WithBlockedRetries(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n >= 0 {
			s.blockedRetries = n
		}
	}
}

// WithLogger sets the scheduler's logger.
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// NewScheduler creates a Scheduler. Defaults: 20s timeout, one in-call
// retry on blocked responses.
func NewScheduler(transport Transport, pool *identity.Pool, th *throttle.Throttle, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		transport:      transport,
		pool:           pool,
		throttle:       th,
		timeout:        20 * time.Second,
		blockedRetries: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Dispatch fetches the target and returns its outcome. The throttle lease
// is released on every path, and the domain's delay is updated for every
// attempt's result before the next attempt is admitted.
func (s *Scheduler) Dispatch(ctx context.Context, target model.Target) Outcome {
	id := s.pool.Assign(target.Domain)

	var last Outcome
	for attempt := 0; attempt <= s.blockedRetries; attempt++ {
		out, retryable := s.attempt(ctx, target, id, attempt+1)
		if !retryable {
			return out
		}
		last = out

		// Blocked: rotate identity and try once more through the (now
		// slower) throttle.
		id = s.pool.Rotate(target.Domain)
		s.logger.Debug("rotated identity after block",
			"domain", target.Domain,
			"profile", id.Name,
			"attempt", attempt+1,
		)
	}

	// In-call retries exhausted while still blocked. The outcome stays
	// StatusBlocked: the session-level retry budget decides whether the
	// target gets another dispatch once the domain's delay has grown.
	last.Reason = "blocked after identity rotation"
	return last
}

// attempt runs one throttled transport call. The second return value is
// true when the outcome is a blocking response worth an in-call retry.
func (s *Scheduler) attempt(ctx context.Context, target model.Target, id identity.Fingerprint, attempt int) (Outcome, bool) {
	lease, err := s.throttle.Acquire(ctx, target.Domain)
	if err != nil {
		return Outcome{
			Target:   target,
			Status:   StatusNetworkError,
			Reason:   "admission aborted: " + err.Error(),
			Attempts: attempt,
		}, false
	}
	defer lease.Release()

	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.transport.Fetch(attemptCtx, target.URL, id)
	if err != nil {
		// Network-level failure: apply the transient-server penalty and
		// leave the retry decision to the session's failed-target bound.
		s.throttle.Record(target.Domain, throttle.SignalServerError, 0)
		return Outcome{
			Target:   target,
			Status:   StatusNetworkError,
			Reason:   err.Error(),
			Attempts: attempt,
		}, false
	}

	out := Outcome{
		Target:      target,
		HTTPStatus:  resp.StatusCode,
		ContentType: resp.ContentType,
		Headers:     resp.Headers,
		Attempts:    attempt,
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		s.throttle.Record(target.Domain, throttle.SignalSuccess, 0)
		out.Status = StatusSuccess
		out.Body = resp.Body
		return out, false

	case resp.StatusCode == http.StatusForbidden:
		s.throttle.Record(target.Domain, throttle.SignalSoftBlock, 0)
		out.Status = StatusBlocked
		out.Reason = "HTTP 403"
		return out, true

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		s.throttle.Record(target.Domain, throttle.SignalBlocked, resp.RetryAfter())
		out.Status = StatusBlocked
		out.Reason = "HTTP " + http.StatusText(resp.StatusCode)
		return out, true

	case resp.StatusCode >= 500:
		s.throttle.Record(target.Domain, throttle.SignalServerError, 0)
		out.Status = StatusNetworkError
		out.Reason = "HTTP " + http.StatusText(resp.StatusCode)
		return out, false

	default:
		// Remaining 4xx and 3xx leftovers: not retryable, not a block.
		out.Status = StatusPermanentFailure
		out.Reason = "HTTP " + http.StatusText(resp.StatusCode)
		return out, false
	}
}
