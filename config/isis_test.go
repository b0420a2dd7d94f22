package config

import (
	"net/netip"
	"testing"
	"time"

	"github.com/arcrtr/srv6d/locator"
	"github.com/stretchr/testify/require"
)

func TestLoadISISConfigAndApply(t *testing.T) {
	path := writeTemp(t, `
area: "49.0001"
locators:
  - name: L1
    prefix: 2001:db8::/48
    block_len: 32
    node_len: 16
    function_len: 16
health_check:
  enabled: true
  delay: 5s
  max_failures: 4
`)

	cfg, err := LoadISISConfig(path)
	require.NoError(t, err)
	require.Equal(t, "49.0001", cfg.Area)
	require.Len(t, cfg.Locators, 1)
	require.True(t, cfg.HealthCheck.Enabled)
	require.Equal(t, 5*time.Second, cfg.HealthCheck.Delay)
	require.Equal(t, 4, cfg.HealthCheck.MaxFailures)

	reg := locator.NewRegistry()
	require.NoError(t, cfg.Apply(reg))
	loc, ok := reg.Lookup("L1")
	require.True(t, ok)
	require.Equal(t, 32, loc.Structure.BlockLenBits)
}

func TestLoadISISConfigRequiresArea(t *testing.T) {
	path := writeTemp(t, "locators: []\n")
	_, err := LoadISISConfig(path)
	require.Error(t, err)
}

func TestHealthMonitorForDisabledReturnsNil(t *testing.T) {
	cfg := &HealthCheckConfig{Enabled: false}
	require.Nil(t, cfg.HealthMonitorFor(1, netip.MustParseAddr("fe80::1"), nil))
}
