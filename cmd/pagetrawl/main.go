// Package main provides the entry point for the pagetrawl CLI.
//
// pagetrawl harvests web pages from seed URLs under adversarial,
// rate-limiting conditions: adaptive per-domain backoff, identity
// rotation, optional Tor egress, three-layer deduplication, and a
// crash-safe checkpoint so interrupted sessions resume without losing
// or repeating work.
//
// Usage:
//
//	pagetrawl run https://example.com/news
//	pagetrawl run --seeds-file seeds.txt --resume
//
// See --help for all available options.
package main

// main is the entry point for pagetrawl.
func main() {
	Execute()
}
