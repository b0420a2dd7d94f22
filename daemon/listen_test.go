package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arcrtr/srv6d/broker"
	"github.com/arcrtr/srv6d/core"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type countingReevaluator struct {
	calls      atomic.Int32
	clearCalls atomic.Int32
}

func (r *countingReevaluator) ReevaluateAll(s *core.State) {
	r.calls.Add(1)
}

func (r *countingReevaluator) ClearSentToBroker() {
	r.clearCalls.Add(1)
}

// pipeDialer hands out client, then reports every subsequent dial
// attempt as failing — none of these tests exercise a real reconnect,
// they only need Listen to stop cleanly once Close is called.
func pipeDialer(client net.Conn) broker.Dialer {
	used := false
	return func() (net.Conn, error) {
		if used {
			return nil, fmt.Errorf("pipeDialer: only one connection available in tests")
		}
		used = true
		return client, nil
	}
}

func TestListenAndDispatchReevaluatesOnVRFUp(t *testing.T) {
	defer goleak.VerifyNone(t)

	client, server := net.Pipe()
	defer server.Close()

	c, err := broker.NewReconnectingClient(pipeDialer(client), slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	mod := &noopCoreModule{}
	s, err := core.Start("static", "", "", slog.LevelError, []core.Module{mod})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		_ = core.Run(s)
		close(done)
	}()

	r := &countingReevaluator{}
	ListenAndDispatch(s, c, []Reevaluator{r})

	require.NoError(t, broker.WriteFrame(server, broker.Frame{
		Type:    broker.MsgVRFUp,
		Payload: broker.VRFNotify{Name: "red", TableID: 100}.Marshal(),
	}))

	require.Eventually(t, func() bool { return r.calls.Load() > 0 }, time.Second, 10*time.Millisecond)

	tableID, active := s.Collab.VRFActive("red")
	require.True(t, active)
	require.Equal(t, uint32(100), tableID)

	s.Cancel(context.Canceled)
	<-done
	c.Close()
}

func TestListenAndDispatchSkipsReevaluateOnAck(t *testing.T) {
	defer goleak.VerifyNone(t)

	client, server := net.Pipe()
	defer server.Close()

	c, err := broker.NewReconnectingClient(pipeDialer(client), slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	mod := &noopCoreModule{}
	s, err := core.Start("static", "", "", slog.LevelError, []core.Module{mod})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		_ = core.Run(s)
		close(done)
	}()

	r := &countingReevaluator{}
	ListenAndDispatch(s, c, []Reevaluator{r})

	addr := netip.MustParseAddr("fc00::1")
	require.NoError(t, broker.WriteFrame(server, broker.Frame{
		Type:    broker.MsgRouteNotifyOwner,
		Payload: broker.RouteNotifyOwner{Address: addr, Outcome: broker.OutcomeInstalled}.Marshal(),
	}))

	// Give the dispatch loop a moment to process, then assert it never
	// triggered a reevaluation for a mere ack.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), r.calls.Load())

	s.Cancel(context.Canceled)
	<-done
	c.Close()
}

func TestReconnectingClientClearsSentFlagsAfterRedial(t *testing.T) {
	defer goleak.VerifyNone(t)

	firstClient, firstServer := net.Pipe()
	secondClient, secondServer := net.Pipe()
	defer secondServer.Close()

	var dialed atomic.Int32
	dial := func() (net.Conn, error) {
		if dialed.Add(1) == 1 {
			return firstClient, nil
		}
		return secondClient, nil
	}
	c, err := broker.NewReconnectingClient(dial, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	mod := &noopCoreModule{}
	s, err := core.Start("static", "", "", slog.LevelError, []core.Module{mod})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		_ = core.Run(s)
		close(done)
	}()

	r := &countingReevaluator{}
	ListenAndDispatch(s, c, []Reevaluator{r})

	// Drop the first connection without calling Close, simulating the
	// broker going away out from under the daemon.
	firstServer.Close()

	require.Eventually(t, func() bool { return r.clearCalls.Load() > 0 }, time.Second, 10*time.Millisecond)
	require.GreaterOrEqual(t, dialed.Load(), int32(2), "a dropped connection should trigger a redial")
	require.GreaterOrEqual(t, r.calls.Load(), r.clearCalls.Load(), "every clear should be followed by a reevaluate")

	s.Cancel(context.Canceled)
	<-done
	c.Close()
}

type noopCoreModule struct{}

func (noopCoreModule) Init(s *core.State) error    { return nil }
func (noopCoreModule) Cleanup(s *core.State) error { return nil }
