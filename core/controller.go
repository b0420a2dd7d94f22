// Package core hosts the event-loop engine and the Installation
// Controller: the state machine deciding, for every Static SID and
// every Adjacency SID, whether it should currently be programmed into
// the forwarding plane.
package core

import (
	"net/netip"

	"github.com/arcrtr/srv6d/sidfmt"
)

// EvalInput is everything the Installation Controller's pure evaluation
// function needs to decide a SID's next state. It intentionally holds no
// pointers into statictab or adjsid records — that is what makes
// Evaluate testable without a real table, locator, or broker.
type EvalInput struct {
	Address  netip.Addr
	Behavior sidfmt.Behavior
	VRFName  string
	IfName   string
	AdjV6    netip.Addr

	OldValid        bool
	OldSentToBroker bool
	OldInstalledOIF string

	Collab Collaborators
}

// EvalOutput is the new persisted flags plus whatever broker-facing
// effects this evaluation produced. A shell applies Effects and must
// persist Valid/SentToBroker/InstalledOIF back onto the SID record
// regardless of whether any Effect fired.
type EvalOutput struct {
	Valid        bool
	SentToBroker bool
	InstalledOIF string
	Effects      []Effect
}

// Evaluate is the Installation Controller's core transition function:
// (old state, current attributes/collaborators) -> (new state, effects).
// It is a pure function of its inputs; no I/O, no global state.
func Evaluate(in EvalInput) EvalOutput {
	valid := attributesSatisfyBehavior(in.Behavior, in.VRFName, in.AdjV6) &&
		collaboratorsLive(in.VRFName, in.IfName, in.Collab)

	out := EvalOutput{
		Valid:        valid,
		SentToBroker: in.OldSentToBroker,
		InstalledOIF: in.OldInstalledOIF,
	}

	switch {
	case valid && !in.OldSentToBroker:
		oif, ok := resolveOIF(in.IfName, in.VRFName, in.Collab)
		if !ok {
			// Stays valid-but-not-sent; retried on the next interface event.
			return out
		}
		out.Effects = append(out.Effects, buildAddEffect(in, oif))
		out.SentToBroker = true
		out.InstalledOIF = oif

	case !valid && in.OldSentToBroker:
		out.Effects = append(out.Effects, buildDelEffect(in, in.OldInstalledOIF))
		out.SentToBroker = false
		out.InstalledOIF = ""
	}

	return out
}

// attributesSatisfyBehavior is the "every attribute required by the
// behavior is present" half of the validity rule.
func attributesSatisfyBehavior(b sidfmt.Behavior, vrfName string, adjV6 netip.Addr) bool {
	if b.RequiresVRF() && vrfName == "" {
		return false
	}
	if b.RequiresAdjacency() && !adjV6.IsValid() {
		return false
	}
	return true
}

// collaboratorsLive is the "each referenced collaborator is currently
// live" half of the validity rule. An attribute that was never set
// imposes no liveness requirement; only set attributes are checked.
func collaboratorsLive(vrfName, ifName string, collab Collaborators) bool {
	if vrfName != "" {
		if _, active := collab.VRFActive(vrfName); !active {
			return false
		}
	}
	if ifName != "" {
		if !collab.InterfaceExists(ifName) {
			return false
		}
	}
	return true
}

// resolveOIF implements the default outgoing-interface selection rule:
// explicit interface, else the VRF name as the outgoing reference, else
// the broker's first non-loopback interface.
func resolveOIF(ifName, vrfName string, collab Collaborators) (string, bool) {
	if ifName != "" {
		return ifName, true
	}
	if vrfName != "" {
		return vrfName, true
	}
	return collab.DefaultInterface()
}

func buildAddEffect(in EvalInput, oif string) Effect {
	ctx := Context{}
	if in.Behavior.RequiresAdjacency() {
		ctx.HasNH6 = true
		ctx.NH6 = in.AdjV6
	}
	if in.VRFName != "" {
		if tableID, active := in.Collab.VRFActive(in.VRFName); active {
			ctx.HasTable = true
			ctx.TableID = tableID
			ctx.VRFName = in.VRFName
		}
	}
	if in.Behavior.IsCompressed() {
		ctx.NextCSID = true
		ctx.BlockLen = sidfmt.DefaultLocatorBlockLenBits
		ctx.NodeLen = sidfmt.DefaultLocatorNodeFuncLenBits
	}

	return Effect{
		Kind:    EffectAddLocalSID,
		Address: in.Address,
		OIF:     oif,
		Action:  in.Behavior.ToWire(),
		Context: ctx,
	}
}

func buildDelEffect(in EvalInput, oif string) Effect {
	return Effect{
		Kind:    EffectDelLocalSID,
		Address: in.Address,
		OIF:     oif,
		Action:  in.Behavior.ToWire(),
	}
}
