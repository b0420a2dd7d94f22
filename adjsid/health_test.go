package adjsid

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNewHealthMonitorAppliesDefaults(t *testing.T) {
	hm := NewHealthMonitor(1, netip.MustParseAddr("fe80::1"), 0, 0, nil)
	require.Equal(t, DefaultHealthCheckDelay, hm.Delay)
	require.Equal(t, DefaultHealthCheckMaxFailures, hm.MaxFailures)
}

func TestHealthMonitorStartStopIsIdempotent(t *testing.T) {
	hm := NewHealthMonitor(1, netip.MustParseAddr("fe80::1"), time.Hour, 3, nil)
	hm.Start()
	hm.Start() // no-op, must not spawn a second goroutine or panic
	hm.Stop()
	hm.Stop() // no-op
}
