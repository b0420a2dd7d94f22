package config

import (
	"fmt"
	"net/netip"
	"os"
	"time"

	"github.com/arcrtr/srv6d/adjsid"
	"github.com/arcrtr/srv6d/errs"
	"github.com/arcrtr/srv6d/locator"
	"github.com/goccy/go-yaml"
)

// LocatorEntry is one YAML list item under the IS-IS daemon's
// "locators" key.
type LocatorEntry struct {
	Name        string       `yaml:"name"`
	Prefix      netip.Prefix `yaml:"prefix"`
	BlockLen    int          `yaml:"block_len"`
	NodeLen     int          `yaml:"node_len"`
	FunctionLen int          `yaml:"function_len"`
	ArgumentLen int          `yaml:"argument_len,omitempty"`
	USID        bool         `yaml:"usid,omitempty"`
}

// HealthCheckConfig is the optional adjacency-SID liveness prober
// configuration shared by every adjacency this daemon manages.
type HealthCheckConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Delay       time.Duration `yaml:"delay,omitempty"`
	MaxFailures int           `yaml:"max_failures,omitempty"`
}

// ISISConfig is the IS-IS daemon's top-level YAML document.
type ISISConfig struct {
	Area        string            `yaml:"area"`
	Locators    []LocatorEntry    `yaml:"locators"`
	HealthCheck HealthCheckConfig `yaml:"health_check,omitempty"`
}

// LoadISISConfig reads and parses path as an ISISConfig.
func LoadISISConfig(path string) (*ISISConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg ISISConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errs.Configf("parsing %s: %v", path, err)
	}
	if cfg.Area == "" {
		return nil, errs.Configf("area is required")
	}
	return &cfg, nil
}

// Apply declares every locator in cfg against reg.
func (cfg *ISISConfig) Apply(reg *locator.Registry) error {
	for i, entry := range cfg.Locators {
		if entry.Name == "" {
			return errs.Configf("locators[%d]: name is required", i)
		}
		if _, err := reg.Create(entry.Name, entry.Prefix, entry.BlockLen, entry.NodeLen, entry.FunctionLen, entry.ArgumentLen, entry.USID); err != nil {
			return fmt.Errorf("locators[%d] (%s): %w", i, entry.Name, err)
		}
	}
	return nil
}

// HealthMonitorFor constructs a HealthMonitor for the given adjacency
// using cfg's delay/max_failures, or nil if health checking is disabled.
func (cfg *HealthCheckConfig) HealthMonitorFor(adjID adjsid.AdjacencyID, target netip.Addr, onUnhealthy func(adjsid.AdjacencyID)) *adjsid.HealthMonitor {
	if !cfg.Enabled {
		return nil
	}
	return adjsid.NewHealthMonitor(adjID, target, cfg.Delay, cfg.MaxFailures, onUnhealthy)
}
