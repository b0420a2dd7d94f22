package adjsid

import (
	"log/slog"
	"net"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/digineo/go-ping"
)

// HealthMonitor is an optional, per-adjacency ICMPv6 reachability prober.
// It never mutates Manager state directly — the single-threaded event
// loop is the only mutation path — it only calls OnUnhealthy, which
// callers wire to post a synthetic adj_ipv6_disabled event onto the
// dispatch channel.
//
// Grounded on the ICMP prefix-health prober's Delay/MaxFailures backoff
// shape, narrowed here to a single adjacency neighbor address.
type HealthMonitor struct {
	AdjacencyID AdjacencyID
	Target      netip.Addr
	Delay       time.Duration
	MaxFailures int
	Logger      *slog.Logger

	// OnUnhealthy is invoked after MaxFailures consecutive probe
	// failures. It must not block.
	OnUnhealthy func(AdjacencyID)

	running atomic.Bool
	stop    chan struct{}
}

// NewHealthMonitor constructs a monitor with the given cadence. A zero
// Delay or MaxFailures falls back to the package defaults.
func NewHealthMonitor(adjID AdjacencyID, target netip.Addr, delay time.Duration, maxFailures int, onUnhealthy func(AdjacencyID)) *HealthMonitor {
	if delay <= 0 {
		delay = DefaultHealthCheckDelay
	}
	if maxFailures <= 0 {
		maxFailures = DefaultHealthCheckMaxFailures
	}
	return &HealthMonitor{
		AdjacencyID: adjID,
		Target:      target,
		Delay:       delay,
		MaxFailures: maxFailures,
		OnUnhealthy: onUnhealthy,
		stop:        make(chan struct{}),
	}
}

// DefaultHealthCheckDelay and DefaultHealthCheckMaxFailures are used when
// a HealthMonitor is constructed without an explicit cadence.
const (
	DefaultHealthCheckDelay       = 15 * time.Second
	DefaultHealthCheckMaxFailures = 3
)

// Start begins probing in a background goroutine. Start is a no-op if
// already running.
func (h *HealthMonitor) Start() {
	if !h.running.CompareAndSwap(false, true) {
		return
	}
	go h.run()
}

// Stop halts the background probe goroutine.
func (h *HealthMonitor) Stop() {
	if !h.running.CompareAndSwap(true, false) {
		return
	}
	close(h.stop)
}

func (h *HealthMonitor) run() {
	ticker := time.NewTicker(h.Delay)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
		}

		pinger, err := ping.New("", "::")
		if err != nil {
			h.logError("failed to start adjacency health prober", err)
			continue
		}

		addr := &net.IPAddr{IP: net.IP(h.Target.AsSlice())}
		perAttempt := h.Delay / time.Duration(h.MaxFailures)
		_, err = pinger.PingAttempts(addr, perAttempt, h.MaxFailures)
		pinger.Close()

		if err != nil {
			failures++
			h.logDebug("adjacency health probe failed", err, failures)
			if failures >= h.MaxFailures && h.OnUnhealthy != nil {
				h.OnUnhealthy(h.AdjacencyID)
				failures = 0
			}
			continue
		}
		failures = 0
	}
}

func (h *HealthMonitor) logError(msg string, err error) {
	if h.Logger != nil {
		h.Logger.Error(msg, "adjacency", h.AdjacencyID, "target", h.Target, "error", err)
	}
}

func (h *HealthMonitor) logDebug(msg string, err error, failures int) {
	if h.Logger != nil {
		h.Logger.Debug(msg, "adjacency", h.AdjacencyID, "target", h.Target, "error", err, "consecutive_failures", failures)
	}
}
