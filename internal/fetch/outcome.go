package fetch

import (
	"net/http"
	"strconv"
	"time"

	"github.com/pagetrawl/pagetrawl/internal/model"
)

// Status is the terminal classification of a dispatch.
// Retry-with-backoff is modeled as data, not control flow: every dispatch
// yields exactly one Outcome and nothing is ever thrown past the caller.
type Status int

const (
	// StatusSuccess means the page was fetched and the payload is usable.
	StatusSuccess Status = iota

	// StatusBlocked means the domain refused service (403/429/503) and
	// in-call retries with rotated identities were exhausted.
	StatusBlocked

	// StatusNetworkError means a transient transport or server failure.
	// The session may re-dispatch the target later, up to its retry bound.
	StatusNetworkError

	// StatusPermanentFailure means the target is not worth retrying
	// (e.g. 404 or 410).
	StatusPermanentFailure
)

// String returns a short label for logs and failure reasons.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusBlocked:
		return "blocked"
	case StatusNetworkError:
		return "network_error"
	case StatusPermanentFailure:
		return "permanent_failure"
	default:
		return "unknown"
	}
}

// Outcome is the immutable result of one dispatch.
type Outcome struct {
	// Target is the fetch target this outcome belongs to.
	Target model.Target

	// Status is the terminal classification.
	Status Status

	// HTTPStatus is the last HTTP status observed, zero if the request
	// never completed.
	HTTPStatus int

	// Body is the response payload. Nil unless Status is StatusSuccess.
	Body []byte

	// ContentType is the response Content-Type, when available.
	ContentType string

	// Headers are the response headers of the final attempt.
	Headers http.Header

	// Reason is a short human-readable failure description.
	Reason string

	// Attempts is the number of fetch attempts made within this dispatch.
	Attempts int
}

// Response is the raw result of a single transport call before
// classification.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Headers are the response headers.
	Headers http.Header

	// Body is the response body, bounded by the transport's body limit.
	Body []byte

	// ContentType is the Content-Type header value.
	ContentType string
}

// RetryAfter parses the response's Retry-After header. Returns zero when
// the header is absent or unparseable. Both delta-seconds and HTTP-date
// forms are accepted.
func (r *Response) RetryAfter() time.Duration {
	v := r.Headers.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
