package broker

import (
	"io"
	"log/slog"
	"net"
	"net/netip"
	"testing"

	"github.com/arcrtr/srv6d/errs"
	"github.com/stretchr/testify/require"
)

func newTestClientPair(t *testing.T) (*Client, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	c := NewClient(client, slog.New(slog.DiscardHandler))
	t.Cleanup(func() { _ = c.Close() })
	return c, server
}

func TestAddLocalSIDWritesFrame(t *testing.T) {
	c, server := newTestClientPair(t)
	addr := netip.MustParseAddr("fc00::1")

	done := make(chan error, 1)
	go func() {
		done <- c.AddLocalSID(AddLocalSID{Address: addr, Action: 1, OIF: "eth0"})
	}()

	frame, err := ReadFrame(server)
	require.NoError(t, err)
	require.Equal(t, MsgAddLocalSID, frame.Type)

	decoded, err := UnmarshalAddLocalSID(frame.Payload)
	require.NoError(t, err)
	require.Equal(t, addr, decoded.Address)
	require.Equal(t, "eth0", decoded.OIF)

	require.NoError(t, <-done)
}

func TestAddLocalSIDRejectsDuplicateOutstandingRequest(t *testing.T) {
	c, server := newTestClientPair(t)
	addr := netip.MustParseAddr("fc00::1")

	go func() {
		_ = c.AddLocalSID(AddLocalSID{Address: addr})
	}()
	_, err := ReadFrame(server)
	require.NoError(t, err)

	err = c.AddLocalSID(AddLocalSID{Address: addr})
	require.Error(t, err)
}

func TestMarkAckedClearsInFlight(t *testing.T) {
	c, server := newTestClientPair(t)
	addr := netip.MustParseAddr("fc00::1")

	go func() {
		_ = c.AddLocalSID(AddLocalSID{Address: addr})
	}()
	_, err := ReadFrame(server)
	require.NoError(t, err)

	c.MarkAcked(addr)

	done := make(chan error, 1)
	go func() {
		done <- c.AddLocalSID(AddLocalSID{Address: addr})
	}()
	_, err = ReadFrame(server)
	require.NoError(t, err)
	require.NoError(t, <-done)
}

func TestAddLocalSIDSendFailureClearsInFlight(t *testing.T) {
	c, server := newTestClientPair(t)
	addr := netip.MustParseAddr("fc00::1")
	_ = server.Close()

	err := c.AddLocalSID(AddLocalSID{Address: addr})
	var sendErr *errs.BrokerSendFailure
	require.ErrorAs(t, err, &sendErr)

	// The in-flight marker was cleared on failure, so a retry for the
	// same address is accepted rather than rejected as a duplicate.
	err = c.AddLocalSID(AddLocalSID{Address: addr})
	require.ErrorAs(t, err, &sendErr)
}

func TestListenDecodesFramesUntilClosed(t *testing.T) {
	c, server := newTestClientPair(t)

	go func() {
		_ = WriteFrame(server, Frame{Type: MsgInterfaceUp, Payload: InterfaceNotify{Name: "eth0"}.Marshal()})
		_ = server.Close()
	}()

	var got []Frame
	err := c.Listen(func(f Frame) { got = append(got, f) })
	require.ErrorIs(t, err, io.EOF)
	require.Len(t, got, 1)
	require.Equal(t, MsgInterfaceUp, got[0].Type)
}
