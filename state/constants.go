package state

import "time"

var (
	// DispatchWarnThreshold is how long a single dispatch closure may run
	// before the main loop logs a warning (teacher's dispatch latency rule).
	DispatchWarnThreshold = time.Millisecond * 4

	// ResourceMissingDedupTTL throttles repeated "waiting on a resource"
	// logging for the same SID address when unrelated broker events keep
	// re-triggering ReevaluateAll.
	ResourceMissingDedupTTL = time.Second * 3
)

// MaxFunctionBits is the widest function field auto-allocation supports;
// 2^MaxFunctionBits-1 indices must fit in a platform int.
const MaxFunctionBits = 32
