// Package bridge is the imperative shell between the Installation
// Controller's pure Effect values and the Forwarding Broker Client:
// the one place that turns a core.Effect into a broker.AddLocalSID or
// broker.DelLocalSID call. Both the static daemon and the IS-IS daemon
// call into this package so the translation is written once.
package bridge

import (
	"github.com/arcrtr/srv6d/broker"
	"github.com/arcrtr/srv6d/core"
	"github.com/arcrtr/srv6d/perf"
)

// Apply sends eff to sender and returns whatever error the send
// produced. On an error the daemon modules roll the owning SID's
// SentToBroker/InstalledOIF back to their values before the send, so
// the edge is sent again on the next re-evaluation (spec §4.6); Apply
// itself never retries.
func Apply(sender broker.Sender, eff core.Effect) error {
	var err error
	switch eff.Kind {
	case core.EffectAddLocalSID:
		err = sender.AddLocalSID(toAddLocalSID(eff))
	case core.EffectDelLocalSID:
		err = sender.DelLocalSID(broker.DelLocalSID{Address: eff.Address, OIF: eff.OIF})
	}
	if err != nil {
		perf.BrokerSendFailures.Add(1)
	}
	return err
}

func toAddLocalSID(eff core.Effect) broker.AddLocalSID {
	ctx := eff.Context
	return broker.AddLocalSID{
		Address: eff.Address,
		Action:  eff.Action,
		OIF:     eff.OIF,

		HasNH4: ctx.HasNH4,
		NH4:    ctx.NH4,
		HasNH6: ctx.HasNH6,
		NH6:    ctx.NH6,

		HasTable: ctx.HasTable,
		TableID:  ctx.TableID,
		VRFName:  ctx.VRFName,

		NextCSID:    ctx.NextCSID,
		BlockLen:    uint8(ctx.BlockLen),
		NodeLen:     uint8(ctx.NodeLen),
		FunctionLen: uint8(ctx.FunctionLen),
		ArgumentLen: uint8(ctx.ArgumentLen),
	}
}
