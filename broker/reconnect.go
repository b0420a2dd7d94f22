package broker

import (
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Dialer opens a new connection to the broker. Production callers dial a
// Unix socket; tests can hand in anything satisfying net.Conn via
// net.Pipe.
type Dialer func() (net.Conn, error)

// ReconnectingClient wraps Client with automatic reconnection. Per
// spec §5, a broker disconnect must not take the whole daemon down: the
// connection is redialed with exponential backoff, and every
// previously-SENT SID must be resent once it's back. This type owns the
// redial and swap; the caller owns forgetting the SENT flags, since only
// the caller's catalogues (statictab.Table, adjsid.Manager) know which
// SIDs exist — see Listen's onReconnect callback.
type ReconnectingClient struct {
	dial Dialer
	log  *slog.Logger

	closed atomic.Bool

	mu     sync.RWMutex
	client *Client
}

// NewReconnectingClient dials once and wraps the result. The initial
// dial is not retried; a daemon that can't reach its broker at all
// should fail startup rather than silently backing off forever before
// its first request. Every dial after that, once a live connection is
// lost, is retried with backoff inside Listen.
func NewReconnectingClient(dial Dialer, log *slog.Logger) (*ReconnectingClient, error) {
	conn, err := dial()
	if err != nil {
		return nil, err
	}
	return &ReconnectingClient{
		dial:   dial,
		log:    log,
		client: NewClient(conn, log),
	}, nil
}

func (r *ReconnectingClient) current() *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.client
}

// AddLocalSID delegates to the currently live connection.
func (r *ReconnectingClient) AddLocalSID(m AddLocalSID) error {
	return r.current().AddLocalSID(m)
}

// DelLocalSID delegates to the currently live connection.
func (r *ReconnectingClient) DelLocalSID(m DelLocalSID) error {
	return r.current().DelLocalSID(m)
}

// MarkAcked delegates to the currently live connection.
func (r *ReconnectingClient) MarkAcked(addr netip.Addr) {
	r.current().MarkAcked(addr)
}

// Close marks the client as intentionally shut down and closes the
// currently live connection. Listen sees the connection drop and, since
// closed is now set, returns instead of trying to redial — an
// intentional shutdown must not fight the caller by reconnecting.
func (r *ReconnectingClient) Close() error {
	r.closed.Store(true)
	return r.current().Close()
}

// Listen reads frames from the current connection, invoking onFrame for
// each one, exactly like Client.Listen. When the connection drops, it
// redials with exponential backoff (retried indefinitely — a daemon
// with a dead broker link has nothing better to do than keep trying),
// swaps in the new client, invokes onReconnect so the caller can clear
// every SID's SENT flag and resend, then resumes reading. It returns
// once Close has been called, or if dial itself is abandoned (which
// with unbounded backoff only happens if the caller's Dialer decides to
// give up).
func (r *ReconnectingClient) Listen(onFrame func(Frame), onReconnect func()) error {
	for {
		err := r.current().Listen(onFrame)
		if r.closed.Load() {
			return err
		}
		r.log.Warn("broker connection lost, reconnecting", "error", err)
		_ = r.current().Close()

		var conn net.Conn
		redial := func() error {
			c, dialErr := r.dial()
			if dialErr != nil {
				return dialErr
			}
			conn = c
			return nil
		}
		bo := backoff.NewExponentialBackOff()
		bo.MaxElapsedTime = 0
		if err := backoff.RetryNotify(redial, bo, func(err error, wait time.Duration) {
			r.log.Warn("broker redial failed, backing off", "error", err, "wait", wait)
		}); err != nil {
			return err
		}

		r.mu.Lock()
		r.client = NewClient(conn, r.log)
		r.mu.Unlock()

		r.log.Info("broker connection re-established")
		onReconnect()
	}
}
