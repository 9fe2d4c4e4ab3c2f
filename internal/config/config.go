// Package config loads router configuration from a TOML file into the
// Failover/Ingress policy configs and the initial registry bootstrap list,
// falling back to named defaults when no file is given. The QoS config is
// always qos.DefaultConfig(); the file format has no QoS table. The original
// implementation left this as a stub returning defaults with a "parse
// TOML/JSON" TODO; this fills that in with go-toml/v2.
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/sugawarayuuta/sonnet"

	"github.com/aftahi334/alpha-smart-router/internal/routing/failover"
	"github.com/aftahi334/alpha-smart-router/internal/routing/ingress"
	"github.com/aftahi334/alpha-smart-router/internal/routing/pop"
	"github.com/aftahi334/alpha-smart-router/internal/routing/qos"
)

// BootstrapService is one service's initial PoP list, as read from the
// config file's [[service]] tables.
type BootstrapService struct {
	ID   string    `toml:"id"`
	Pops []tomlPop `toml:"pops"`
}

type tomlPop struct {
	ID     string `toml:"id"`
	Region string `toml:"region"`
	IP     string `toml:"ip"`
	Weight uint16 `toml:"weight"`
}

// RouterConfig is the fully resolved configuration handed to cmd/router.
type RouterConfig struct {
	QoS       qos.Config
	Failover  failover.Config
	Ingress   ingress.Config
	Bootstrap []BootstrapService
}

// fileShape is the raw TOML document shape.
type fileShape struct {
	Failover struct {
		PrimaryPathID      string  `toml:"primary_path_id"`
		ReturnToPrimary    bool    `toml:"return_to_primary"`
		ImprovePctToSwitch float64 `toml:"improve_pct_to_switch"`
		MinHoldMs          uint32  `toml:"min_hold_ms"`
		RecoveryHoldMs     uint32  `toml:"recovery_hold_ms"`
	} `toml:"failover"`
	Ingress struct {
		Mode     string `toml:"mode"`
		Strategy string `toml:"strategy"`
		Seed     uint64 `toml:"seed"`
	} `toml:"ingress"`
	Service []BootstrapService `toml:"service"`
}

// LoadFromFile reads and parses path on top of the named defaults.
// An empty path returns pure defaults with no bootstrap services. The
// [failover] table is applied only when it sets a nonzero min_hold_ms, and
// then all five failover fields are taken from the file, so fields it
// leaves out become zero rather than their defaults. Ingress mode, strategy
// and seed each override their default only when set.
func LoadFromFile(path string) (RouterConfig, error) {
	rc := RouterConfig{
		QoS:      qos.DefaultConfig(),
		Failover: failover.DefaultConfig(),
		Ingress:  ingress.DefaultConfig(),
	}

	if path == "" {
		return rc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return rc, err
	}

	var doc fileShape
	if err := toml.Unmarshal(data, &doc); err != nil {
		return rc, err
	}

	if doc.Failover.MinHoldMs != 0 {
		rc.Failover.PrimaryPathID = doc.Failover.PrimaryPathID
		rc.Failover.ReturnToPrimary = doc.Failover.ReturnToPrimary
		rc.Failover.ImprovePctToSwitch = doc.Failover.ImprovePctToSwitch
		rc.Failover.MinHoldMs = doc.Failover.MinHoldMs
		rc.Failover.RecoveryHoldMs = doc.Failover.RecoveryHoldMs
	}

	if doc.Ingress.Mode != "" {
		rc.Ingress.Mode = parseIngressMode(doc.Ingress.Mode)
	}
	if doc.Ingress.Strategy != "" {
		rc.Ingress.Strategy = parseIngressStrategy(doc.Ingress.Strategy)
	}
	if doc.Ingress.Seed != 0 {
		rc.Ingress.Seed = doc.Ingress.Seed
	}

	rc.Bootstrap = doc.Service
	return rc, nil
}

// DumpJSON renders the fully resolved configuration as JSON, for operators
// inspecting what defaults got merged with a given TOML file.
func (rc RouterConfig) DumpJSON() ([]byte, error) {
	return sonnet.Marshal(rc)
}

// PopList converts a BootstrapService's TOML-shaped PoPs to pop.List.
func (b BootstrapService) PopList() pop.List {
	out := make(pop.List, len(b.Pops))
	for i, p := range b.Pops {
		weight := p.Weight
		if weight == 0 {
			weight = 100
		}
		out[i] = pop.Pop{ID: p.ID, Region: p.Region, IP: p.IP, Weight: weight, Health: pop.Up}
	}
	return out
}

func parseIngressMode(s string) ingress.Mode {
	if s == "route_informed" {
		return ingress.RouteInformed
	}
	return ingress.PolicyDeterministic
}

func parseIngressStrategy(s string) ingress.Strategy {
	switch s {
	case "hash_source_ip":
		return ingress.HashSourceIP
	case "hash_5tuple":
		return ingress.Hash5Tuple
	default:
		return ingress.RoundRobin
	}
}
