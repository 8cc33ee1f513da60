// Package robots consults and caches per-host robots.txt policies.
// Lookups default to allow on any retrieval or parse failure.
package robots
