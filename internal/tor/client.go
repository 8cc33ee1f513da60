package tor

import (
	"context"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// checkProxyTimeout bounds the connectivity probe. This only checks that
// the proxy answers, not that a request can complete through Tor.
const checkProxyTimeout = 2 * time.Second

// Client provides crawl egress through a Tor SOCKS5 proxy. It wraps a
// SOCKS5 dialer and builds HTTP clients whose connections all ride Tor
// circuits.
//
// Design decision: the client never manages the Tor daemon itself.
// Daemon lifecycle lives in EmbeddedTor and circuit renewal in Renewer,
// so a deployment with its own system Tor only needs this type.
type Client struct {
	// proxyAddress is the SOCKS5 address in "host:port" form.
	proxyAddress string

	// dialer is the cached SOCKS5 dialer.
	dialer proxy.Dialer

	// timeout is the default timeout for HTTP clients built here.
	timeout time.Duration
}

// NewClient creates a Tor client for the given SOCKS5 proxy address.
// The address format is validated; reachability is not. Call
// CheckConnection to verify the proxy is actually up.
func NewClient(proxyAddress string, timeout time.Duration) (*Client, error) {
	if !validProxyAddress(proxyAddress) {
		return nil, ErrInvalidProxyAddress
	}
	// Tor's SOCKS port does not require authentication by default.
	dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, err
	}
	return &Client{
		proxyAddress: proxyAddress,
		dialer:       dialer,
		timeout:      timeout,
	}, nil
}

// validProxyAddress reports whether address is a plausible "host:port".
func validProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// CheckConnection verifies the proxy answers a SOCKS5 greeting. A plain
// TCP accept is not enough; any service on the port would pass that.
func (c *Client) CheckConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.proxyAddress)
	if err != nil {
		return ErrProxyUnreachable
	}
	defer conn.Close() //nolint:errcheck // probe connection

	if err := conn.SetDeadline(time.Now().Add(checkProxyTimeout)); err != nil {
		return ErrProxyUnreachable
	}

	// SOCKS5 greeting: version 5, one method, no auth.
	if _, err := conn.Write([]byte{0x05, 0x01, 0x00}); err != nil {
		return ErrProxyUnreachable
	}
	resp := make([]byte, 2)
	if _, err := conn.Read(resp); err != nil {
		return ErrProxyNotSOCKS
	}
	if resp[0] != 0x05 || resp[1] != 0x00 {
		return ErrProxyNotSOCKS
	}
	return nil
}

// NewHTTPClient builds an HTTP client routed through the proxy. The pool
// is kept small because each connection consumes a Tor circuit, and
// compression is disabled to avoid size side channels on the circuit.
func (c *Client) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: func(_ context.Context, network, addr string) (net.Conn, error) {
			return c.dialer.Dial(network, addr)
		},
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
		DisableCompression:  true,
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New cannot fail with nil options

	return &http.Client{
		Transport: transport,
		Timeout:   c.timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// ProxyAddress returns the configured proxy address.
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}

// controlHostFor derives the default control port address from a SOCKS
// address: same host, port 9051. Used when no control address is
// configured explicitly.
func controlHostFor(socksAddr string) string {
	host, _, err := net.SplitHostPort(socksAddr)
	if err != nil || host == "" {
		return "127.0.0.1:9051"
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return host + ":9051"
}
