// Package daemon wires the per-package pieces (statictab, locator,
// adjsid, core, broker, fpm) into the three runnable roles spec.md
// names: the static-SID daemon, the IS-IS daemon, and the central
// broker daemon. Each role is a core.Module; cmd/ constructs one and
// hands it to core.Start.
package daemon

import (
	"net/netip"
	"sync"

	"github.com/arcrtr/srv6d/bridge"
	"github.com/arcrtr/srv6d/broker"
	"github.com/arcrtr/srv6d/config"
	"github.com/arcrtr/srv6d/core"
	"github.com/arcrtr/srv6d/perf"
	"github.com/arcrtr/srv6d/statictab"
)

// StaticModule is the static-routes daemon role: it owns the operator-
// declared Static SID Table and drives the Installation Controller every
// time a SID's attributes change or a broker event touches a
// collaborator it depends on.
type StaticModule struct {
	ConfigPath string
	Sender     broker.Sender

	Table *statictab.Table

	mu           sync.Mutex
	installedOIF map[netip.Addr]string
	dedup        *resourceMissingDedup
}

// NewStaticModule constructs a static daemon module that reads its
// declarations from configPath and sends ADD_LOCALSID/DEL_LOCALSID
// requests through sender.
func NewStaticModule(configPath string, sender broker.Sender) *StaticModule {
	return &StaticModule{
		ConfigPath:   configPath,
		Sender:       sender,
		Table:        statictab.NewTable(),
		installedOIF: make(map[netip.Addr]string),
		dedup:        newResourceMissingDedup(),
	}
}

// Init loads the declared SIDs and installs the re-evaluation hook.
// Table.OnChange fires synchronously inside the same dispatch closure
// that changed the SID, per §4.5's edge-triggered dispatch model.
func (m *StaticModule) Init(s *core.State) error {
	m.Table.OnChange = func(sid *statictab.SID) {
		m.reevaluate(s, sid)
	}

	cfg, err := config.LoadStaticConfig(m.ConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.Apply(m.Table); err != nil {
		return err
	}
	perf.SIDsDeclared.Add(float64(len(m.Table.All())))
	s.Log.Info("static daemon loaded declarations", "count", len(m.Table.All()))
	return nil
}

func (m *StaticModule) Cleanup(s *core.State) error {
	m.dedup.Stop()
	return nil
}

// reevaluate runs the Installation Controller for sid and applies
// whatever effect it produces. It is also the re-evaluation entry point
// for VRF/interface resource events (see handleFrame in listen.go), so it must be
// safe to call any number of times with no attribute change at all.
func (m *StaticModule) reevaluate(s *core.State, sid *statictab.SID) {
	m.mu.Lock()
	oif := m.installedOIF[sid.Address]
	m.mu.Unlock()

	out := core.Evaluate(core.EvalInput{
		Address:  sid.Address,
		Behavior: sid.Behavior,
		VRFName:  sid.VRFName,
		IfName:   sid.IfName,
		AdjV6:    sid.AdjV6,

		OldValid:        sid.Valid,
		OldSentToBroker: sid.SentToBroker,
		OldInstalledOIF: oif,

		Collab: s.Collab,
	})

	recordTransition(sid.Valid, sid.SentToBroker, out)
	if !out.Valid {
		m.dedup.logIfDue(s.Log, sid.Address, "static SID is waiting on a VRF or interface resource")
	}

	for _, eff := range out.Effects {
		if err := bridge.Apply(m.Sender, eff); err != nil {
			s.Log.Error("failed to apply effect", "address", eff.Address, "error", err)
			// Roll the optimistic flag Evaluate set back to what it was
			// before this attempt, so the next resource event re-triggers
			// the same edge instead of Evaluate believing the send already
			// happened (§4.6: a failed ADD stays valid-but-not-sent, a
			// failed DEL stays sent, both retried on the next opportunity).
			out.SentToBroker = sid.SentToBroker
			out.InstalledOIF = oif
		}
	}

	sid.Valid = out.Valid
	sid.SentToBroker = out.SentToBroker

	m.mu.Lock()
	if out.InstalledOIF != "" {
		m.installedOIF[sid.Address] = out.InstalledOIF
	} else {
		delete(m.installedOIF, sid.Address)
	}
	m.mu.Unlock()
}

// ReevaluateAll re-runs the controller for every declared SID, used when
// a broker resource notification (VRF/interface up or down) may have
// changed the validity of SIDs that reference it.
func (m *StaticModule) ReevaluateAll(s *core.State) {
	for _, sid := range m.Table.All() {
		m.reevaluate(s, sid)
	}
}

// ClearSentToBroker forgets every declared SID's SENT flag and its
// installed-OIF record, so the next ReevaluateAll re-sends everything
// still valid under a freshly reconnected broker connection.
func (m *StaticModule) ClearSentToBroker() {
	for _, sid := range m.Table.All() {
		sid.SentToBroker = false
	}
	m.mu.Lock()
	clear(m.installedOIF)
	m.mu.Unlock()
}
