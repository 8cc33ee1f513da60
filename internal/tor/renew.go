package tor

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

// minRenewInterval is the shortest allowed gap between circuit renewals.
// Tor itself rate-limits NEWNYM; hammering the control port just queues
// signals without producing fresh circuits.
const minRenewInterval = 15 * time.Second

// Renewer requests fresh Tor circuits over the control port. Renew is a
// one-way trigger: the orchestrator fires it periodically and does not
// care whether the signal was sent or coalesced into a recent one.
type Renewer struct {
	controlAddr string
	password    string
	logger      *slog.Logger

	mu   sync.Mutex
	last time.Time
}

// RenewerOption configures a Renewer.
type RenewerOption func(*Renewer)

// WithControlPassword sets the control port password. Empty means the
// control port accepts unauthenticated sessions or cookie auth is off.
func WithControlPassword(password string) RenewerOption {
	return func(r *Renewer) {
		r.password = password
	}
}

// WithRenewLogger sets the renewer's logger.
func WithRenewLogger(logger *slog.Logger) RenewerOption {
	return func(r *Renewer) {
		r.logger = logger
	}
}

// NewRenewer creates a Renewer for the given control port address. An
// empty address derives the conventional control port from the SOCKS
// address via the client.
func NewRenewer(controlAddr string, opts ...RenewerOption) *Renewer {
	r := &Renewer{controlAddr: controlAddr}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// NewRenewerForClient creates a Renewer using the conventional control
// port next to the client's SOCKS port.
func NewRenewerForClient(c *Client, opts ...RenewerOption) *Renewer {
	return NewRenewer(controlHostFor(c.ProxyAddress()), opts...)
}

// Renew sends SIGNAL NEWNYM to the control port. Calls inside the
// minimum interval are coalesced and return nil; the previous renewal is
// recent enough to count.
func (r *Renewer) Renew(ctx context.Context) error {
	r.mu.Lock()
	if since := time.Since(r.last); since < minRenewInterval {
		r.mu.Unlock()
		r.logger.Debug("circuit renewal coalesced", "since_last", since)
		return nil
	}
	// Reserve the slot before the network call so concurrent callers
	// coalesce instead of double-signaling.
	r.last = time.Now()
	r.mu.Unlock()

	if err := r.signalNewNym(ctx); err != nil {
		r.mu.Lock()
		r.last = time.Time{}
		r.mu.Unlock()
		return err
	}

	r.logger.Info("tor circuit renewal requested", "control", r.controlAddr)
	return nil
}

// signalNewNym speaks the control protocol: authenticate, signal, quit.
func (r *Renewer) signalNewNym(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", r.controlAddr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrControlUnavailable, err)
	}
	defer conn.Close() //nolint:errcheck // short-lived control session

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(10 * time.Second))
	}
	reader := bufio.NewReader(conn)

	if err := roundTrip(conn, reader, fmt.Sprintf("AUTHENTICATE %q", r.password)); err != nil {
		return fmt.Errorf("%w: %v", ErrControlAuthFailed, err)
	}
	if err := roundTrip(conn, reader, "SIGNAL NEWNYM"); err != nil {
		return fmt.Errorf("signal newnym: %w", err)
	}
	_, _ = conn.Write([]byte("QUIT\r\n"))
	return nil
}

// roundTrip sends one control command and requires a 250 reply.
func roundTrip(conn net.Conn, reader *bufio.Reader, command string) error {
	if _, err := conn.Write([]byte(command + "\r\n")); err != nil {
		return err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	if !strings.HasPrefix(line, "250") {
		return fmt.Errorf("control port replied %q", strings.TrimSpace(line))
	}
	return nil
}
