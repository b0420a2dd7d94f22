package broker

import (
	"log/slog"
	"net"
	"net/netip"
	"time"

	"github.com/arcrtr/srv6d/errs"
	"github.com/arcrtr/srv6d/perf"
	"github.com/jellydator/ttlcache/v3"
)

// inFlightTTL bounds how long an address is considered to have an
// outstanding request if no ack/nack ever arrives, so a broker that
// silently drops a response can't wedge that address forever. A normal
// round trip clears the entry via MarkAcked well before this fires.
const inFlightTTL = 30 * time.Second

// inFlightEntry tracks the request type and send time for an
// outstanding address, so MarkAcked can report the round-trip latency.
type inFlightEntry struct {
	Type   MsgType
	SentAt time.Time
}

// Client is the Forwarding Broker Client: it sends ADD_LOCALSID and
// DEL_LOCALSID requests over conn and decodes whatever frames it reads
// back. Per spec §5, at most one request per SID address may be
// outstanding at a time; a second request for an address already
// in-flight is an Internal assertion, not a queued retry.
type Client struct {
	conn net.Conn
	log  *slog.Logger

	inFlight *ttlcache.Cache[netip.Addr, inFlightEntry]
}

// NewClient wraps conn (a "unix" dial in production, net.Pipe() in
// tests) as a broker client.
func NewClient(conn net.Conn, log *slog.Logger) *Client {
	c := &Client{
		conn:     conn,
		log:      log,
		inFlight: ttlcache.New[netip.Addr, inFlightEntry](ttlcache.WithTTL[netip.Addr, inFlightEntry](inFlightTTL)),
	}
	go c.inFlight.Start()
	return c
}

// Close stops the in-flight cache's eviction loop and closes the
// connection.
func (c *Client) Close() error {
	c.inFlight.Stop()
	return c.conn.Close()
}

func (c *Client) markOutstanding(addr netip.Addr, t MsgType) error {
	if item := c.inFlight.Get(addr); item != nil {
		return errs.Internalf("broker: address %s already has an outstanding request", addr)
	}
	c.inFlight.Set(addr, inFlightEntry{Type: t, SentAt: time.Now()}, ttlcache.DefaultTTL)
	return nil
}

// MarkAcked clears addr's outstanding-request marker once its
// ROUTE_NOTIFY_OWNER (or equivalent ack/nack) has been processed, and
// records the round-trip latency since the request was sent.
func (c *Client) MarkAcked(addr netip.Addr) {
	if item := c.inFlight.Get(addr); item != nil {
		perf.BrokerRoundTrip.Add(float64(time.Since(item.Value().SentAt).Microseconds()))
	}
	c.inFlight.Delete(addr)
}

// AddLocalSID sends an ADD_LOCALSID request. A write failure is
// reported as a *errs.BrokerSendFailure and leaves addr's in-flight
// marker cleared, so the controller retries on the next resource event
// per spec §4.6's send-failure semantics; it does not leave an
// Internal-triggering phantom outstanding request behind.
func (c *Client) AddLocalSID(m AddLocalSID) error {
	if err := c.markOutstanding(m.Address, MsgAddLocalSID); err != nil {
		return err
	}
	if err := WriteFrame(c.conn, Frame{Type: MsgAddLocalSID, Payload: m.Marshal()}); err != nil {
		c.inFlight.Delete(m.Address)
		return errs.SendFailuref("broker: ADD_LOCALSID for %s: %v", m.Address, err)
	}
	return nil
}

// DelLocalSID sends a DEL_LOCALSID request, under the same one-
// outstanding-request-per-address discipline as AddLocalSID.
func (c *Client) DelLocalSID(m DelLocalSID) error {
	if err := c.markOutstanding(m.Address, MsgDelLocalSID); err != nil {
		return err
	}
	if err := WriteFrame(c.conn, Frame{Type: MsgDelLocalSID, Payload: m.Marshal()}); err != nil {
		c.inFlight.Delete(m.Address)
		return errs.SendFailuref("broker: DEL_LOCALSID for %s: %v", m.Address, err)
	}
	return nil
}

// Listen reads frames from conn until it errors or is closed, invoking
// onFrame for each one. It is meant to run in its own goroutine; per
// spec §5 it must never mutate daemon state directly — onFrame is
// expected to decode the frame and push a dispatch closure, not act on
// it inline.
func (c *Client) Listen(onFrame func(Frame)) error {
	for {
		frame, err := ReadFrame(c.conn)
		if err != nil {
			return err
		}
		onFrame(frame)
	}
}
