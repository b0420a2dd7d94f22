package daemon

import (
	"errors"
	"io"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/arcrtr/srv6d/broker"
	"github.com/arcrtr/srv6d/core"
	"github.com/arcrtr/srv6d/errs"
	"github.com/arcrtr/srv6d/fpm"
	"github.com/arcrtr/srv6d/perf"
	"github.com/arcrtr/srv6d/sidfmt"
	"golang.org/x/sys/unix"
)

// BrokerModule is the central routing-information broker role: it
// accepts ADD_LOCALSID/DEL_LOCALSID requests from the static and IS-IS
// daemons over a Unix socket, mirrors each one to a downstream
// Forwarding Plane Manager as an FPM Netlink frame, and acks the
// request with a ROUTE_NOTIFY_OWNER.
//
// Grounded on the teacher's listener-goroutine-per-connection shape
// (e2e/harness.go's ctl listener) adapted to this package's
// length-prefixed framing instead of protobuf-over-TCP.
type BrokerModule struct {
	ListenPath string
	FPM        io.Writer
	Table      uint32

	listener net.Listener

	mu      sync.Mutex
	clients map[net.Conn]struct{}
}

// NewBrokerModule constructs a broker daemon module listening on
// listenPath and mirroring every accepted local-SID request to fpmConn.
func NewBrokerModule(listenPath string, fpmConn io.Writer, table uint32) *BrokerModule {
	return &BrokerModule{
		ListenPath: listenPath,
		FPM:        fpmConn,
		Table:      table,
		clients:    make(map[net.Conn]struct{}),
	}
}

func (b *BrokerModule) Init(s *core.State) error {
	ln, err := net.Listen("unix", b.ListenPath)
	if err != nil {
		return err
	}
	b.listener = ln

	go b.acceptLoop(s)
	s.Log.Info("broker daemon listening", "path", b.ListenPath)
	return nil
}

func (b *BrokerModule) Cleanup(s *core.State) error {
	if b.listener != nil {
		return b.listener.Close()
	}
	return nil
}

func (b *BrokerModule) acceptLoop(s *core.State) {
	for {
		conn, err := b.listener.Accept()
		if err != nil {
			s.Log.Info("broker listener stopped", "error", err)
			return
		}
		b.mu.Lock()
		b.clients[conn] = struct{}{}
		b.mu.Unlock()
		go b.serveClient(s, conn)
	}
}

func (b *BrokerModule) serveClient(s *core.State, conn net.Conn) {
	defer func() {
		b.mu.Lock()
		delete(b.clients, conn)
		b.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		frame, err := broker.ReadFrame(conn)
		if err != nil {
			s.Log.Debug("client connection closed", "error", err)
			return
		}
		if err := b.handleRequest(s, conn, frame); err != nil {
			s.Log.Error("failed to handle client request", "error", err)
		}
	}
}

func (b *BrokerModule) handleRequest(s *core.State, conn net.Conn, f broker.Frame) error {
	switch f.Type {
	case broker.MsgAddLocalSID:
		m, err := broker.UnmarshalAddLocalSID(f.Payload)
		if err != nil {
			return err
		}
		outcome := b.mirrorAddLocalSID(s, m)
		return broker.WriteFrame(conn, broker.Frame{
			Type:    broker.MsgRouteNotifyOwner,
			Payload: broker.RouteNotifyOwner{Address: m.Address, Outcome: outcome}.Marshal(),
		})

	case broker.MsgDelLocalSID:
		m, err := broker.UnmarshalDelLocalSID(f.Payload)
		if err != nil {
			return err
		}
		outcome := b.mirrorDelLocalSID(s, m)
		return broker.WriteFrame(conn, broker.Frame{
			Type:    broker.MsgRouteNotifyOwner,
			Payload: broker.RouteNotifyOwner{Address: m.Address, Outcome: outcome}.Marshal(),
		})

	default:
		s.Log.Warn("broker daemon received an unexpected frame type", "type", f.Type)
		return nil
	}
}

func (b *BrokerModule) mirrorAddLocalSID(s *core.State, m broker.AddLocalSID) broker.Outcome {
	route := fpm.Route{
		Dst:       netip.PrefixFrom(m.Address, m.Address.BitLen()),
		Table:     b.Table,
		Protocol:  unix.RTPROT_STATIC,
		RouteType: unix.RTN_LOCAL,
		Nexthops: []fpm.Nexthop{{
			OIF: resolveOIFIndex(m.OIF),
			LocalSID: &fpm.LocalSIDEncap{
				Structure: sidfmt.SIDStructure{
					BlockLenBits:    int(m.BlockLen),
					NodeLenBits:     int(m.NodeLen),
					FunctionLenBits: int(m.FunctionLen),
					ArgumentLenBits: int(m.ArgumentLen),
				},
				Behavior: sidfmt.Behavior(m.Action),
				NH4:      m.NH4,
				NH6:      m.NH6,
				VRFName:  m.VRFName,
			},
		}},
	}

	var buf [512]byte
	start := time.Now()
	n, err := fpm.EncodeRoute(buf[:], route)
	perf.FPMEncodeLatency.Add(float64(time.Since(start).Microseconds()))
	if err != nil {
		var overflow *errs.EncodeOverflow
		if errors.As(err, &overflow) {
			perf.EncodeOverflows.Add(1)
		}
		s.Log.Error("failed to encode local-SID route", "address", m.Address, "error", err)
		return broker.OutcomeFailInstall
	}
	b.mu.Lock()
	_, werr := b.FPM.Write(buf[:n])
	b.mu.Unlock()
	if werr != nil {
		s.Log.Error("failed to write FPM frame", "address", m.Address, "error", werr)
		return broker.OutcomeFailInstall
	}
	return broker.OutcomeInstalled
}

func (b *BrokerModule) mirrorDelLocalSID(s *core.State, m broker.DelLocalSID) broker.Outcome {
	route := fpm.Route{
		Delete:    true,
		Dst:       netip.PrefixFrom(m.Address, m.Address.BitLen()),
		Table:     b.Table,
		Protocol:  unix.RTPROT_STATIC,
		RouteType: unix.RTN_LOCAL,
		Nexthops:  []fpm.Nexthop{{OIF: resolveOIFIndex(m.OIF)}},
	}

	var buf [512]byte
	start := time.Now()
	n, err := fpm.EncodeRoute(buf[:], route)
	perf.FPMEncodeLatency.Add(float64(time.Since(start).Microseconds()))
	if err != nil {
		var overflow *errs.EncodeOverflow
		if errors.As(err, &overflow) {
			perf.EncodeOverflows.Add(1)
		}
		s.Log.Error("failed to encode local-SID withdrawal", "address", m.Address, "error", err)
		return broker.OutcomeRemoveFail
	}
	b.mu.Lock()
	_, werr := b.FPM.Write(buf[:n])
	b.mu.Unlock()
	if werr != nil {
		s.Log.Error("failed to write FPM frame", "address", m.Address, "error", werr)
		return broker.OutcomeRemoveFail
	}
	return broker.OutcomeRemoved
}

// resolveOIFIndex looks up name's kernel interface index, the same
// net.InterfaceByName boundary the teacher's prefix-health prober uses
// to resolve a bind interface. A lookup failure yields ifindex 0, which
// the encoder treats as "no RTA_OIF attribute".
func resolveOIFIndex(name string) uint32 {
	if name == "" {
		return 0
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return 0
	}
	return uint32(iface.Index)
}
