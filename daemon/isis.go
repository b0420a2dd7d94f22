package daemon

import (
	"net/netip"
	"sync"

	"github.com/arcrtr/srv6d/adjsid"
	"github.com/arcrtr/srv6d/bridge"
	"github.com/arcrtr/srv6d/broker"
	"github.com/arcrtr/srv6d/config"
	"github.com/arcrtr/srv6d/core"
	"github.com/arcrtr/srv6d/locator"
	"github.com/arcrtr/srv6d/perf"
)

// sidState is the Installation Controller's persisted flag set, kept
// outside statictab/adjsid/locator since those are pure catalogues and
// this daemon-side cache is the only place that needs to remember it
// between evaluations.
type sidState struct {
	valid        bool
	sentToBroker bool
	installedOIF string
}

// ISISModule is the IS-IS daemon role: it owns the area's Locator
// Registry and Adjacency-SID Manager, and drives the Installation
// Controller for every End.X SID the manager allocates.
type ISISModule struct {
	ConfigPath string
	Sender     broker.Sender

	Locators *locator.Registry
	Adj      *adjsid.Manager

	healthCfg config.HealthCheckConfig

	mu       sync.Mutex
	states   map[netip.Addr]*sidState
	monitors map[adjsid.AdjacencyID]*adjsid.HealthMonitor
	dedup    *resourceMissingDedup
}

// NewISISModule constructs an IS-IS daemon module reading its locators
// from configPath and sending requests through sender.
func NewISISModule(configPath string, sender broker.Sender) *ISISModule {
	reg := locator.NewRegistry()
	mgr := adjsid.NewManager()
	reg.OnChunkRelease = mgr.HandleChunkRelease

	return &ISISModule{
		ConfigPath: configPath,
		Sender:     sender,
		Locators:   reg,
		Adj:        mgr,
		states:     make(map[netip.Addr]*sidState),
		monitors:   make(map[adjsid.AdjacencyID]*adjsid.HealthMonitor),
		dedup:      newResourceMissingDedup(),
	}
}

func (m *ISISModule) Init(s *core.State) error {
	cfg, err := config.LoadISISConfig(m.ConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.Apply(m.Locators); err != nil {
		return err
	}
	m.healthCfg = cfg.HealthCheck

	for _, loc := range m.Locators.All() {
		chunk, err := m.Locators.ChunkAlloc(loc.Name, "isis")
		if err != nil {
			return err
		}
		m.Adj.AddChunk(chunk)
	}

	m.Adj.OnInstallRequest = func(sid *adjsid.EndXSID) {
		m.reevaluate(s, sid)
	}
	m.Adj.OnWithdrawRequest = func(sid *adjsid.EndXSID) {
		m.withdraw(s, sid)
	}

	s.Log.Info("isis daemon loaded locators", "count", len(m.Locators.All()))
	return nil
}

func (m *ISISModule) Cleanup(s *core.State) error {
	m.dedup.Stop()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, hm := range m.monitors {
		hm.Stop()
	}
	return nil
}

// AdjacencyUp registers a new link-state adjacency and, once its
// neighbor's IPv6 address is known, allocates an End.X SID for it and
// starts an optional health monitor.
func (m *ISISModule) AdjacencyUp(s *core.State, circuit adjsid.CircuitType, primary bool, neighborV6 netip.Addr) (*adjsid.Adjacency, error) {
	adj := m.Adj.NewAdjacency(circuit, primary)
	if err := m.Adj.AdjUp(adj.ID); err != nil {
		return nil, err
	}
	if !neighborV6.IsValid() {
		return adj, nil
	}
	if _, err := m.Adj.AdjIPv6Enabled(adj.ID, neighborV6); err != nil {
		return nil, err
	}
	perf.SIDsDeclared.Add(1)

	if hm := m.healthCfg.HealthMonitorFor(adj.ID, neighborV6, func(id adjsid.AdjacencyID) {
		s.Dispatch(func(s *core.State) error {
			return m.Adj.AdjIPv6Disabled(id)
		})
	}); hm != nil {
		hm.Logger = s.Log
		hm.Start()
		m.mu.Lock()
		m.monitors[adj.ID] = hm
		m.mu.Unlock()
	}
	return adj, nil
}

// AdjacencyDown tears down adj's End.X SIDs and stops its health
// monitor, if any.
func (m *ISISModule) AdjacencyDown(id adjsid.AdjacencyID) error {
	m.mu.Lock()
	if hm, ok := m.monitors[id]; ok {
		hm.Stop()
		delete(m.monitors, id)
	}
	m.mu.Unlock()
	return m.Adj.AdjDown(id)
}

func (m *ISISModule) reevaluate(s *core.State, sid *adjsid.EndXSID) {
	m.mu.Lock()
	st, ok := m.states[sid.Address]
	if !ok {
		st = &sidState{}
		m.states[sid.Address] = st
	}
	old := *st
	m.mu.Unlock()

	var adjV6 netip.Addr
	if adj, ok := m.Adj.Adjacency(sid.AdjacencyID); ok {
		adjV6 = adj.NeighborV6
	}

	out := core.Evaluate(core.EvalInput{
		Address:  sid.Address,
		Behavior: sid.Behavior,
		AdjV6:    adjV6,

		OldValid:        old.valid,
		OldSentToBroker: old.sentToBroker,
		OldInstalledOIF: old.installedOIF,

		Collab: s.Collab,
	})

	recordTransition(old.valid, old.sentToBroker, out)
	if !out.Valid {
		m.dedup.logIfDue(s.Log, sid.Address, "adjacency SID is waiting on its neighbor coming back up")
	}

	for _, eff := range out.Effects {
		if err := bridge.Apply(m.Sender, eff); err != nil {
			s.Log.Error("failed to apply effect", "address", eff.Address, "error", err)
			// Same rollback as the static daemon: don't let a failed send
			// look like a completed one, or the edge-trigger in Evaluate
			// never fires again for this address.
			out.SentToBroker = old.sentToBroker
			out.InstalledOIF = old.installedOIF
		}
	}

	m.mu.Lock()
	st.valid = out.Valid
	st.sentToBroker = out.SentToBroker
	st.installedOIF = out.InstalledOIF
	if !out.Valid && !out.SentToBroker {
		delete(m.states, sid.Address)
	}
	m.mu.Unlock()
}

// withdraw forces sid out regardless of its adjacency's current reported
// liveness. The manager calls OnWithdrawRequest exactly when it has
// already decided to tear sid down (adjacency down, IPv6 disabled, or
// its chunk released), so withdrawal must not be second-guessed by
// re-deriving validity from Adjacency state that may not have caught up
// yet.
func (m *ISISModule) withdraw(s *core.State, sid *adjsid.EndXSID) {
	m.mu.Lock()
	st, ok := m.states[sid.Address]
	if !ok {
		m.mu.Unlock()
		return
	}
	old := *st
	m.mu.Unlock()

	out := core.Evaluate(core.EvalInput{
		Address:  sid.Address,
		Behavior: sid.Behavior,

		OldValid:        old.valid,
		OldSentToBroker: old.sentToBroker,
		OldInstalledOIF: old.installedOIF,

		Collab: s.Collab,
	})

	recordTransition(old.valid, old.sentToBroker, out)

	sent := true
	for _, eff := range out.Effects {
		if err := bridge.Apply(m.Sender, eff); err != nil {
			s.Log.Error("failed to apply effect", "address", eff.Address, "error", err)
			sent = false
		}
	}

	m.mu.Lock()
	if sent {
		delete(m.states, sid.Address)
	} else {
		// The DEL never reached the broker; keep the record SENT so a
		// later evaluation of this address still sees it needing a DEL
		// instead of silently forgetting it.
		st.valid = false
		st.sentToBroker = old.sentToBroker
		st.installedOIF = old.installedOIF
	}
	m.mu.Unlock()
}

// ReevaluateAll re-runs the controller for every area End.X SID.
func (m *ISISModule) ReevaluateAll(s *core.State) {
	for _, sid := range m.Adj.AreaEndXSIDs() {
		m.reevaluate(s, sid)
	}
}

// ClearSentToBroker forgets every tracked End.X SID's SENT flag, so the
// next ReevaluateAll re-sends everything still valid under a freshly
// reconnected broker connection.
func (m *ISISModule) ClearSentToBroker() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.states {
		st.sentToBroker = false
		st.installedOIF = ""
	}
}
