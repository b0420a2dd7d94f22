package daemon

import (
	"github.com/arcrtr/srv6d/broker"
	"github.com/arcrtr/srv6d/core"
)

// Reevaluator is satisfied by any role-specific module that keeps its
// own catalogue of SIDs and needs to re-run the Installation Controller
// over all of them when a collaborator's liveness changes, or forget
// which of them it believes the broker already has.
type Reevaluator interface {
	ReevaluateAll(s *core.State)

	// ClearSentToBroker forgets every SID's SENT flag. Called once after
	// a broker reconnect, so the next ReevaluateAll resends everything
	// the broker may have lost track of while disconnected (§5).
	ClearSentToBroker()
}

// ListenAndDispatch starts a background goroutine reading broker
// notifications from client and, for each one, submits a dispatch
// closure that updates s.Collab and re-evaluates every reevaluator's
// SIDs. Per broker.Client.Listen's contract, the read loop itself never
// touches State directly. On a broker disconnect, client redials with
// backoff on its own; once reconnected, every reevaluator's SENT flags
// are cleared and everything still valid is resent, instead of tearing
// the daemon process down.
func ListenAndDispatch(s *core.State, client *broker.ReconnectingClient, reevaluators []Reevaluator) {
	go func() {
		err := client.Listen(func(f broker.Frame) {
			s.Dispatch(func(s *core.State) error {
				return handleFrame(s, client, f, reevaluators)
			})
		}, func() {
			s.Dispatch(func(s *core.State) error {
				for _, r := range reevaluators {
					r.ClearSentToBroker()
				}
				for _, r := range reevaluators {
					r.ReevaluateAll(s)
				}
				return nil
			})
		})
		if err != nil {
			s.Log.Error("broker reconnect abandoned", "error", err)
			s.Cancel(err)
		}
	}()
}

func handleFrame(s *core.State, client *broker.ReconnectingClient, f broker.Frame, reevaluators []Reevaluator) error {
	changed := true

	switch f.Type {
	case broker.MsgVRFUp:
		n, err := broker.UnmarshalVRFNotify(f.Payload)
		if err != nil {
			return err
		}
		s.Log.Info("VRF up", "vrf", n.Name, "table", n.TableID)
		s.Collab.VRFUp(n.Name, n.TableID)

	case broker.MsgVRFDown:
		n, err := broker.UnmarshalVRFNotify(f.Payload)
		if err != nil {
			return err
		}
		s.Log.Info("VRF down", "vrf", n.Name)
		s.Collab.VRFDown(n.Name)

	case broker.MsgInterfaceUp:
		n, err := broker.UnmarshalInterfaceNotify(f.Payload)
		if err != nil {
			return err
		}
		s.Log.Info("interface up", "ifname", n.Name)
		s.Collab.InterfaceUp(n.Name)

	case broker.MsgInterfaceDown:
		n, err := broker.UnmarshalInterfaceNotify(f.Payload)
		if err != nil {
			return err
		}
		s.Log.Info("interface down", "ifname", n.Name)
		s.Collab.InterfaceDown(n.Name)

	case broker.MsgRouteNotifyOwner:
		n, err := broker.UnmarshalRouteNotifyOwner(f.Payload)
		if err != nil {
			return err
		}
		client.MarkAcked(n.Address)
		if n.Outcome == broker.OutcomeFailInstall || n.Outcome == broker.OutcomeRemoveFail {
			s.Log.Warn("broker reported a failed install/remove", "address", n.Address, "outcome", n.Outcome)
		}
		changed = false

	default:
		changed = false
	}

	if changed {
		for _, r := range reevaluators {
			r.ReevaluateAll(s)
		}
	}
	return nil
}
