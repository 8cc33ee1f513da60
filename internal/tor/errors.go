package tor

import "errors"

var (
	// ErrInvalidProxyAddress is returned for a malformed proxy address.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrProxyUnreachable is returned when no TCP connection to the
	// proxy can be established. Tor is likely not running.
	ErrProxyUnreachable = errors.New("cannot connect to Tor proxy")

	// ErrProxyNotSOCKS is returned when the proxy port answers but does
	// not speak SOCKS5, e.g. an HTTP proxy on the configured port.
	ErrProxyNotSOCKS = errors.New("proxy is not a SOCKS5 proxy")

	// ErrControlUnavailable is returned when the control port cannot be
	// reached for circuit renewal.
	ErrControlUnavailable = errors.New("tor control port unavailable")

	// ErrControlAuthFailed is returned when the control port rejects the
	// configured credentials.
	ErrControlAuthFailed = errors.New("tor control port authentication failed")
)
