package fetch

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pagetrawl/pagetrawl/internal/identity"
	"github.com/pagetrawl/pagetrawl/internal/model"
)

// Transport performs a single HTTP fetch with a given identity.
// The production implementation wraps an *http.Client (direct or routed
// through Tor); tests substitute fakes.
type Transport interface {
	// Fetch retrieves url presenting the given fingerprint. A non-2xx
	// status is not an error; errors mean the request itself failed.
	Fetch(ctx context.Context, url string, id identity.Fingerprint) (*Response, error)
}

// HTTPTransport is the production Transport over net/http.
type HTTPTransport struct {
	client      *http.Client
	maxBodySize int64
	siteHeaders map[string]map[string]string
}

// HTTPTransportOption configures an HTTPTransport.
type HTTPTransportOption func(*HTTPTransport)

// WithMaxBodySize limits how much of each response body is read.
func WithMaxBodySize(n int64) HTTPTransportOption {
	return func(t *HTTPTransport) {
		if n > 0 {
			t.maxBodySize = n
		}
	}
}

// WithSiteHeaders adds per-domain extra headers (from the sites file),
// layered over the fingerprint profile. Keys are lowercase domains.
func WithSiteHeaders(headers map[string]map[string]string) HTTPTransportOption {
	return func(t *HTTPTransport) {
		t.siteHeaders = headers
	}
}

// NewHTTPTransport creates a transport over the given client. The client
// carries the proxy configuration and per-request timeout; pass a client
// from the tor package to route fetches through Tor.
func NewHTTPTransport(client *http.Client, opts ...HTTPTransportOption) *HTTPTransport {
	t := &HTTPTransport{
		client:      client,
		maxBodySize: 5 * 1024 * 1024,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Fetch implements Transport.
func (t *HTTPTransport) Fetch(ctx context.Context, url string, id identity.Fingerprint) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	for k, v := range id.Headers() {
		req.Header.Set(k, v)
	}
	if domain, ok := model.DomainOf(url); ok {
		for k, v := range t.siteHeaders[domain] {
			req.Header.Set(k, v)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // Read side is what matters

	// The fingerprint sets Accept-Encoding explicitly, which turns off
	// net/http's transparent gzip handling, so the compressed encodings
	// have to be undone here. The body cap applies to the decoded bytes.
	reader, err := decodeBody(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(reader, t.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		Headers:     resp.Header,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// decodeBody wraps body in the decoder matching the Content-Encoding
// header. Servers disagree on whether "deflate" means a zlib stream
// (RFC 9110) or a bare DEFLATE stream, so the first bytes are sniffed
// for the zlib header.
func decodeBody(body io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return body, nil
	case "gzip":
		r, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("decode gzip body: %w", err)
		}
		return r, nil
	case "deflate":
		br := bufio.NewReader(body)
		head, err := br.Peek(1)
		if err != nil {
			return nil, fmt.Errorf("decode deflate body: %w", err)
		}
		if head[0] == 0x78 {
			r, err := zlib.NewReader(br)
			if err != nil {
				return nil, fmt.Errorf("decode deflate body: %w", err)
			}
			return r, nil
		}
		return flate.NewReader(br), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, encoding)
	}
}
