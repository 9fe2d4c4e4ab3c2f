// Package failover decides whether and when to switch the active path for a
// service, applying hysteresis so QoS score noise near a decision boundary
// doesn't flap the route. The policy is deliberately stateless: all dwell
// timers are evaluated from PathHealth.LastChange at decision time rather
// than via background timers.
package failover

import (
	"time"

	"github.com/aftahi334/alpha-smart-router/internal/routing/qos"
)

// HealthState is the high-level health classification of a path.
type HealthState uint8

const (
	Up HealthState = iota
	Degraded
	Down
)

// Config holds the hysteresis parameters for one service's failover policy.
type Config struct {
	PrimaryPathID      string
	ReturnToPrimary    bool
	ImprovePctToSwitch float64
	MinHoldMs          uint32
	RecoveryHoldMs     uint32
}

// DefaultConfig mirrors the original implementation's named defaults.
func DefaultConfig() Config {
	return Config{
		ReturnToPrimary:    true,
		ImprovePctToSwitch: 0.10,
		MinHoldMs:          3000,
		RecoveryHoldMs:     5000,
	}
}

// PathHealth is the health state of a path and the time of its last
// transition.
type PathHealth struct {
	PathID     string
	State      HealthState
	LastChange time.Time
}

// Decision is the result of an evaluation: the path to switch to, and a
// short reason string for observability.
type Decision struct {
	NextPathID string
	Reason     string
}

// Policy evaluates failover decisions against a Config. Not safe for
// concurrent UpdateConfig calls; evaluations are read-only and concurrent
// with each other is fine.
type Policy struct {
	cfg Config
}

// New builds a Policy with the given configuration.
func New(cfg Config) *Policy { return &Policy{cfg: cfg} }

// Config returns the current configuration.
func (p *Policy) Config() Config { return p.cfg }

// UpdateConfig replaces the configuration. Single-writer (control-plane)
// expected.
func (p *Policy) UpdateConfig(cfg Config) { p.cfg = cfg }

func findScore(scores []qos.Score, id string) (qos.Score, bool) {
	for _, s := range scores {
		if s.PathID == id {
			return s, true
		}
	}
	return qos.Score{}, false
}

func stateOf(id string, health []PathHealth) HealthState {
	for _, h := range health {
		if h.PathID == id {
			return h.State
		}
	}
	return Down // unknown path treated conservatively
}

func lastChangeOf(id string, health []PathHealth) time.Time {
	for _, h := range health {
		if h.PathID == id {
			return h.LastChange
		}
	}
	return time.Time{}
}

func allowSwitch(last, now time.Time, holdMs uint32) bool {
	return last.IsZero() || now.Sub(last) >= time.Duration(holdMs)*time.Millisecond
}

// Evaluate runs the 4-step decision order: current-down, no-current-score,
// better-candidate-with-margin, return-to-primary. It returns ok=false when
// the current path should be kept.
func (p *Policy) Evaluate(current string, scores []qos.Score, health []PathHealth, now time.Time) (Decision, bool) {
	curState := stateOf(current, health)
	curScore, haveCurScore := findScore(scores, current)
	curLastChange := lastChangeOf(current, health)

	var best qos.Score
	haveBest := false
	for _, s := range scores {
		if stateOf(s.PathID, health) == Down {
			continue
		}
		if !haveBest || s.Value > best.Value {
			best, haveBest = s, true
		}
	}
	if !haveBest {
		return Decision{}, false
	}

	if curState == Down {
		return Decision{NextPathID: best.PathID, Reason: "current_down"}, true
	}

	if haveCurScore {
		needed := curScore.Value * (1.0 + p.cfg.ImprovePctToSwitch)
		if best.PathID != current && best.Value >= needed &&
			allowSwitch(curLastChange, now, p.cfg.MinHoldMs) {
			return Decision{NextPathID: best.PathID, Reason: "better_candidate_with_margin"}, true
		}
	} else {
		return Decision{NextPathID: best.PathID, Reason: "no_current_score"}, true
	}

	if p.cfg.ReturnToPrimary && p.cfg.PrimaryPathID != "" && p.cfg.PrimaryPathID != current {
		prim, havePrim := findScore(scores, p.cfg.PrimaryPathID)
		primState := stateOf(p.cfg.PrimaryPathID, health)
		primLastChange := lastChangeOf(p.cfg.PrimaryPathID, health)
		if havePrim && primState != Down && prim.Value >= best.Value &&
			allowSwitch(primLastChange, now, p.cfg.RecoveryHoldMs) {
			return Decision{NextPathID: p.cfg.PrimaryPathID, Reason: "return_to_primary"}, true
		}
	}

	return Decision{}, false
}
