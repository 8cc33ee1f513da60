// Package fetch dispatches fetch targets through admission control and
// classifies the results. A Scheduler combines the identity pool, the
// throttle, and a Transport: each dispatch acquires a lease, fetches
// with the domain's assigned identity, feeds the outcome back into the
// throttle's delay controller, and rotates identities when a domain
// starts blocking.
package fetch
