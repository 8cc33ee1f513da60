// Package throttle provides admission control and adaptive per-domain
// rate limiting for fetches. Each domain carries its own delay, floor
// override, and concurrency slots; a global semaphore caps total
// in-flight fetches across all domains.
package throttle
