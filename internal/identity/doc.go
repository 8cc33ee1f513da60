// Package identity manages the ring of outbound browser fingerprints.
// Each domain is deterministically assigned one profile; blocking
// responses rotate the domain to the next profile in the ring.
package identity
