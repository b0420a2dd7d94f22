package daemon

import (
	"github.com/arcrtr/srv6d/core"
	"github.com/arcrtr/srv6d/perf"
)

// recordTransition publishes a sample to SIDsValid/SIDsInstalled every
// time an Installation Controller evaluation flips one of those flags,
// shared by StaticModule and ISISModule since both drive the same
// controller. Like the teacher's PerSecond counters, these are rate
// counters over a sliding window, not live gauges, so only the edges
// are recorded.
func recordTransition(oldValid, oldSentToBroker bool, out core.EvalOutput) {
	if out.Valid != oldValid {
		perf.SIDsValid.Add(1)
	}
	if out.SentToBroker != oldSentToBroker {
		perf.SIDsInstalled.Add(1)
	}
}
