// Package log provides a masking slog.Handler that prevents request
// credentials (cookies, auth headers, proxy userinfo, the Tor control
// password) from appearing in log output.
package log
