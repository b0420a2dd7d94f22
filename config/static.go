// Package config loads the YAML configuration surfaces for the static
// and IS-IS daemons and replays them against the same sid_declare /
// sid_set_attribute / locator_define operations an interactive CLI
// would call — this package implements the callee side of that
// boundary only, never a CLI itself.
//
// Grounded on the teacher's CentralCfg/LocalCfg YAML shapes
// (state/config.go), adapted here to goccy/go-yaml since that is the
// library this module's ambient stack standardizes on.
package config

import (
	"fmt"
	"net/netip"
	"os"

	"github.com/arcrtr/srv6d/errs"
	"github.com/arcrtr/srv6d/sidfmt"
	"github.com/arcrtr/srv6d/statictab"
	"github.com/goccy/go-yaml"
)

// StaticSIDEntry is one YAML list item under the static daemon's "sids"
// key. At most one of IfName, VRF, or AdjV6 may be set, mirroring
// statictab.Attribute's single-field contract; none at all is also
// allowed, declaring a SID that stays invalid until a later config
// reload sets one.
type StaticSIDEntry struct {
	Address  netip.Addr `yaml:"address"`
	Behavior string     `yaml:"behavior"`
	IfName   string     `yaml:"ifname,omitempty"`
	VRF      string     `yaml:"vrf,omitempty"`
	AdjV6    netip.Addr `yaml:"adj_v6,omitempty"`
}

// StaticConfig is the static daemon's top-level YAML document.
type StaticConfig struct {
	SIDs []StaticSIDEntry `yaml:"sids"`
}

// LoadStaticConfig reads and parses path as a StaticConfig.
func LoadStaticConfig(path string) (*StaticConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg StaticConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errs.Configf("parsing %s: %v", path, err)
	}
	return &cfg, nil
}

// Apply replays every entry in cfg against table, declaring each SID and
// setting its single attribute. It stops at the first ConfigError so the
// operator sees exactly which line is wrong, matching the teacher's
// fail-fast config-load idiom rather than collecting every error.
func (cfg *StaticConfig) Apply(table *statictab.Table) error {
	for i, entry := range cfg.SIDs {
		behavior, ok := sidfmt.ParseCLI(entry.Behavior)
		if !ok {
			return errs.Configf("sids[%d]: unknown behavior %q", i, entry.Behavior)
		}
		if !entry.Address.IsValid() {
			return errs.Configf("sids[%d]: address is required", i)
		}

		set := 0
		if entry.IfName != "" {
			set++
		}
		if entry.VRF != "" {
			set++
		}
		if entry.AdjV6.IsValid() {
			set++
		}
		if set > 1 {
			return errs.Configf("sids[%d] (%s): at most one of ifname, vrf, or adj_v6 may be set", i, entry.Address)
		}

		if _, err := table.Add(entry.Address, behavior); err != nil {
			return fmt.Errorf("sids[%d]: %w", i, err)
		}

		// A SID with none of the three set is declared but stays invalid
		// (waiting on a future attribute) — AttributeSet requires exactly
		// one field, so it is skipped entirely rather than called with a
		// zero Attribute.
		if set == 0 {
			continue
		}
		attr := statictab.Attribute{IfName: entry.IfName, VRFName: entry.VRF, AdjV6: entry.AdjV6}
		if err := table.AttributeSet(entry.Address, attr); err != nil {
			return fmt.Errorf("sids[%d] (%s): %w", i, entry.Address, err)
		}
	}
	return nil
}
