// Package tor provides crawl egress through the Tor network: a SOCKS5
// client for routing fetches, an embedded daemon manager for
// deployments without a system Tor, and a control-port renewer that
// requests fresh circuits during long sessions.
//
// Design decision: the three concerns are separate types instead of one
// facade. A deployment with its own Tor daemon uses Client and Renewer
// only; EmbeddedTor exists for the zero-setup path.
package tor
