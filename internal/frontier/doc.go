// Package frontier maintains the breadth-first crawl queue. Targets are
// admitted depth by depth under per-domain, per-depth, and global caps,
// with exclusion lists and per-site overrides applied at admission time.
package frontier
