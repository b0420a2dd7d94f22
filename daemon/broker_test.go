package daemon

import (
	"bytes"
	"log/slog"
	"net"
	"net/netip"
	"path/filepath"
	"testing"
	"time"

	"github.com/arcrtr/srv6d/broker"
	"github.com/arcrtr/srv6d/core"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestBrokerModuleMirrorsAddLocalSIDToFPM(t *testing.T) {
	defer goleak.VerifyNone(t)

	sockPath := filepath.Join(t.TempDir(), "broker.sock")
	var fpm bytes.Buffer
	mod := NewBrokerModule(sockPath, &fpm, 254)

	s, err := core.Start("broker", "", "", slog.LevelError, []core.Module{mod})
	require.NoError(t, err)
	defer core.Stop(s)

	conn, err := net.Dial("unix", sockPath)
	require.NoError(t, err)
	defer conn.Close()
	client := broker.NewClient(conn, slog.New(slog.DiscardHandler))
	defer client.Close()

	require.NoError(t, client.AddLocalSID(broker.AddLocalSID{
		Address: netip.MustParseAddr("fc00::1"),
		Action:  5,
		OIF:     "eth0",
	}))

	frame, err := broker.ReadFrame(conn)
	require.NoError(t, err)
	require.Equal(t, broker.MsgRouteNotifyOwner, frame.Type)

	ack, err := broker.UnmarshalRouteNotifyOwner(frame.Payload)
	require.NoError(t, err)
	require.Equal(t, netip.MustParseAddr("fc00::1"), ack.Address)
	require.Equal(t, broker.OutcomeInstalled, ack.Outcome)

	require.Eventually(t, func() bool { return fpm.Len() > 0 }, time.Second, 10*time.Millisecond)
}

func TestBrokerModuleMirrorsDelLocalSIDToFPM(t *testing.T) {
	defer goleak.VerifyNone(t)

	sockPath := filepath.Join(t.TempDir(), "broker.sock")
	var fpm bytes.Buffer
	mod := NewBrokerModule(sockPath, &fpm, 254)

	s, err := core.Start("broker", "", "", slog.LevelError, []core.Module{mod})
	require.NoError(t, err)
	defer core.Stop(s)

	conn, err := net.Dial("unix", sockPath)
	require.NoError(t, err)
	defer conn.Close()
	client := broker.NewClient(conn, slog.New(slog.DiscardHandler))
	defer client.Close()

	require.NoError(t, client.DelLocalSID(broker.DelLocalSID{
		Address: netip.MustParseAddr("fc00::1"),
		OIF:     "eth0",
	}))

	frame, err := broker.ReadFrame(conn)
	require.NoError(t, err)
	ack, err := broker.UnmarshalRouteNotifyOwner(frame.Payload)
	require.NoError(t, err)
	require.Equal(t, broker.OutcomeRemoved, ack.Outcome)
}
