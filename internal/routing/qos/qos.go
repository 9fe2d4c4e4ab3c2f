// Package qos scores candidate paths against per-class SLO targets and maps
// traffic classes to DSCP codepoints. It is read-mostly and deterministic:
// config updates are rare control-plane events, scoring runs on every
// candidate-set evaluation.
package qos

import (
	"math"
	"sync/atomic"
)

// Class is an application-level traffic class, mapped to a DSCP PHB by
// Config.DSCPByClass.
type Class uint8

const (
	Bulk Class = iota
	BestEffort
	Interactive
	Realtime
)

// Thresholds are SLO-style ceilings used for normalization and compliance
// checks.
type Thresholds struct {
	MaxLatencyUs uint32
	MaxJitterUs  uint32
	MaxLoss      float64
}

// Weights are the relative importance of each metric in the blended score.
type Weights struct {
	Latency float64
	Jitter  float64
	Loss    float64
}

// PathMetrics is the telemetry snapshot scored against a class's targets.
type PathMetrics struct {
	PathID    string
	LatencyUs uint32
	JitterUs  uint32
	Loss      float64
}

// Score is the scoring result for one path.
type Score struct {
	PathID           string
	Value            float64
	WithinThresholds bool
}

// Config is the immutable configuration bundle for scoring and DSCP lookup.
// Replace wholesale via Policy.UpdateConfig; never mutate a Config in place
// once it has been installed.
type Config struct {
	ThresholdsByClass map[Class]Thresholds
	Weights           Weights
	DSCPByClass       map[Class]uint8
}

// DefaultThresholds mirrors the original implementation's Best Effort
// targets, used as the conservative fallback when a class has no explicit
// thresholds configured.
func DefaultThresholds() Thresholds {
	return Thresholds{MaxLatencyUs: 15000, MaxJitterUs: 8000, MaxLoss: 0.02}
}

// DSCP codepoints used by the default class mapping (RFC 4594 style).
const (
	DSCP_BE   = 0x00
	DSCP_CS1  = 0x08
	DSCP_AF31 = 0x28
	DSCP_EF   = 0x2E
)

// DefaultConfig is the stock Bulk/BestEffort/Interactive/Realtime mapping.
func DefaultConfig() Config {
	return Config{
		ThresholdsByClass: map[Class]Thresholds{
			Bulk:        {MaxLatencyUs: 20000, MaxJitterUs: 10000, MaxLoss: 0.05},
			BestEffort:  {MaxLatencyUs: 15000, MaxJitterUs: 8000, MaxLoss: 0.02},
			Interactive: {MaxLatencyUs: 8000, MaxJitterUs: 3000, MaxLoss: 0.01},
			Realtime:    {MaxLatencyUs: 4000, MaxJitterUs: 1500, MaxLoss: 0.005},
		},
		Weights: Weights{Latency: 0.6, Jitter: 0.3, Loss: 0.1},
		DSCPByClass: map[Class]uint8{
			Bulk:        DSCP_CS1,
			BestEffort:  DSCP_BE,
			Interactive: DSCP_AF31,
			Realtime:    DSCP_EF,
		},
	}
}

// Policy scores candidates and looks up DSCP values against the currently
// installed Config. Safe for concurrent readers; UpdateConfig is meant to be
// called from a single control-plane writer.
type Policy struct {
	cfg atomic.Pointer[Config]
}

// New builds a Policy with the given initial configuration.
func New(cfg Config) *Policy {
	p := &Policy{}
	p.cfg.Store(&cfg)
	return p
}

// Config returns the currently installed configuration.
func (p *Policy) Config() Config {
	return *p.cfg.Load()
}

// UpdateConfig atomically replaces the configuration.
func (p *Policy) UpdateConfig(cfg Config) {
	p.cfg.Store(&cfg)
}

// DSCP looks up the DSCP codepoint for clazz, defaulting to Best Effort (0)
// when unmapped.
func (p *Policy) DSCP(clazz Class) uint8 {
	cfg := p.cfg.Load()
	if v, ok := cfg.DSCPByClass[clazz]; ok {
		return v
	}
	return 0
}

// ScorePath scores pm against clazz's thresholds and weights.
func (p *Policy) ScorePath(pm PathMetrics, clazz Class) Score {
	cfg := p.cfg.Load()
	th, ok := cfg.ThresholdsByClass[clazz]
	if !ok {
		th = DefaultThresholds()
	}

	nlat := normalize(float64(pm.LatencyUs), float64(th.MaxLatencyUs))
	njit := normalize(float64(pm.JitterUs), float64(th.MaxJitterUs))
	nloss := normalize(pm.Loss, th.MaxLoss)

	return Score{
		PathID: pm.PathID,
		Value:  blend(nlat, njit, nloss, cfg.Weights),
		WithinThresholds: pm.LatencyUs <= th.MaxLatencyUs &&
			pm.JitterUs <= th.MaxJitterUs &&
			pm.Loss <= th.MaxLoss,
	}
}

// ChooseBest scores every candidate and returns the highest. When
// requireWithinThresholds is set, it prefers compliant candidates and only
// falls back to the best overall score if none comply, so the router never
// blackholes traffic for lack of a perfect path.
func (p *Policy) ChooseBest(candidates []PathMetrics, clazz Class, requireWithinThresholds bool) (Score, bool) {
	var best Score
	have := false

	for _, pm := range candidates {
		s := p.ScorePath(pm, clazz)
		if requireWithinThresholds && !s.WithinThresholds {
			continue
		}
		if !have || s.Value > best.Value {
			best, have = s, true
		}
	}

	if !have && requireWithinThresholds {
		for _, pm := range candidates {
			s := p.ScorePath(pm, clazz)
			if !have || s.Value > best.Value {
				best, have = s, true
			}
		}
	}

	return best, have
}

// normalize maps a measured value against a target: <= target yields 1.0,
// above target decays smoothly toward 0. A zero target is treated as
// non-compliant by definition.
func normalize(measured, target float64) float64 {
	if target <= 0 {
		return 0
	}
	ratio := measured / target
	return 1.0 / (1.0 + math.Max(0, ratio-1.0))
}

// blend combines normalized components with weights and clamps to [0,1].
func blend(nlat, njit, nloss float64, w Weights) float64 {
	sumw := math.Max(1e-9, w.Latency+w.Jitter+w.Loss)
	raw := (nlat*w.Latency + njit*w.Jitter + nloss*w.Loss) / sumw
	return math.Min(1, math.Max(0, raw))
}
