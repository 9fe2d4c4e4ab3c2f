// Package pathselect implements the three path-selection policies:
// RoundRobin, FlowHash, and LatencyAware. Each exposes a Choose method with
// the shape of policybinding.ChooseFn (via its own choose closure), so the
// control plane binds one of these into a policybinding.Binding for the
// data plane to call.
package pathselect

import (
	"sync/atomic"

	"github.com/aftahi334/alpha-smart-router/internal/routing/policybinding"
	"github.com/aftahi334/alpha-smart-router/internal/routing/pop"
	"github.com/aftahi334/alpha-smart-router/internal/routing/seqslot"
)

// qosMatch is a placeholder compatibility check between a path's QoS class
// and a packet's DSCP marking, matching the original implementation's own
// placeholder ("treat non-zero class as a weak match") pending a real DSCP
// classification table.
func qosMatch(pathClass uint8, _ uint8) bool {
	return pathClass != 0
}

// RoundRobinPolicy cycles through healthy candidates starting from a
// monotonic counter, falling back to the start candidate if none are
// healthy (a degraded but deterministic choice rather than blackholing).
type RoundRobinPolicy struct {
	idx atomic.Uint32
}

func NewRoundRobinPolicy() *RoundRobinPolicy { return &RoundRobinPolicy{} }

func (p *RoundRobinPolicy) Choose(cands []policybinding.CandidateRef, _ pop.PacketContext) pop.PathId {
	n := uint32(len(cands))
	if n == 0 {
		return 0
	}
	start := p.idx.Add(1) % n
	for i := uint32(0); i < n; i++ {
		k := (start + i) % n
		if m, ok := seqslot.Load(cands[k].Slot); ok && m.Healthy {
			return cands[k].ID
		}
	}
	return cands[start].ID
}

// FlowHashPolicy maps a packet's flow hash into the candidate index space,
// optionally skipping unhealthy candidates by scanning forward from the
// mapped base index.
type FlowHashPolicy struct {
	skipUnhealthy bool
}

func NewFlowHashPolicy(skipUnhealthy bool) *FlowHashPolicy {
	return &FlowHashPolicy{skipUnhealthy: skipUnhealthy}
}

func (p *FlowHashPolicy) Choose(cands []policybinding.CandidateRef, pkt pop.PacketContext) pop.PathId {
	n := uint32(len(cands))
	if n == 0 {
		return 0
	}
	base := pkt.FlowHash % n
	if !p.skipUnhealthy {
		return cands[base].ID
	}
	for i := uint32(0); i < n; i++ {
		k := (base + i) % n
		if m, ok := seqslot.Load(cands[k].Slot); ok && m.Healthy {
			return cands[k].ID
		}
	}
	return cands[base].ID // keep the mapping stable if everything is unhealthy
}

// LatencyAwareConfig configures LatencyAwarePolicy.
type LatencyAwareConfig struct {
	TieMarginUs    uint32
	ExplorePpm     uint32
	PreferQosClass bool
}

// DefaultLatencyAwareConfig mirrors the original implementation's defaults.
func DefaultLatencyAwareConfig() LatencyAwareConfig {
	return LatencyAwareConfig{TieMarginUs: 200, PreferQosClass: true}
}

// LatencyAwarePolicy picks the minimum-RTT healthy candidate, with an
// optional QoS-class tie-break and a small, salted exploration probability
// so a persistently "best" path doesn't starve alternatives of fresh
// measurements.
type LatencyAwarePolicy struct {
	cfg  LatencyAwareConfig
	salt atomic.Uint32
}

func NewLatencyAwarePolicy(cfg LatencyAwareConfig) *LatencyAwarePolicy {
	p := &LatencyAwarePolicy{cfg: cfg}
	p.salt.Store(0xA5A55A5A)
	return p
}

func (p *LatencyAwarePolicy) Choose(cands []policybinding.CandidateRef, pkt pop.PacketContext) pop.PathId {
	if len(cands) == 0 {
		return 0
	}

	best := -1
	var bestM seqslot.PathMetrics
	for i, c := range cands {
		m, ok := seqslot.Load(c.Slot)
		if !ok || !m.Healthy {
			continue
		}
		switch {
		case best < 0 || m.RttUs < bestM.RttUs:
			best, bestM = i, m
		case p.cfg.PreferQosClass:
			close := m.RttUs <= bestM.RttUs+p.cfg.TieMarginUs
			if close && qosMatch(m.QosClass, pkt.DSCP) && !qosMatch(bestM.QosClass, pkt.DSCP) {
				best, bestM = i, m
			}
		}
	}

	if best < 0 {
		// No healthy candidate: fall back to the absolute minimum RTT
		// among whatever loaded, so the choice stays deterministic.
		idx := -1
		var minM seqslot.PathMetrics
		for i, c := range cands {
			m, ok := seqslot.Load(c.Slot)
			if !ok {
				continue
			}
			if idx < 0 || m.RttUs < minM.RttUs {
				idx, minM = i, m
			}
		}
		if idx < 0 {
			idx = 0
		}
		return cands[idx].ID
	}

	if p.cfg.ExplorePpm > 0 {
		rng := xorshift32{state: pkt.FlowHash ^ p.salt.Load()}
		if rng.nextBounded(1_000_000) < p.cfg.ExplorePpm {
			n := uint32(len(cands))
			start := rng.nextBounded(n)
			for i := uint32(0); i < n; i++ {
				k := (start + i) % n
				if int(k) == best {
					continue
				}
				if m, ok := seqslot.Load(cands[k].Slot); ok && m.Healthy {
					p.salt.Add(0x9E37)
					return cands[k].ID
				}
			}
		}
	}
	return cands[best].ID
}

// xorshift32 is a tiny, fast, non-cryptographic PRNG used only to decide
// whether to explore an alternate path this packet.
type xorshift32 struct{ state uint32 }

func (x *xorshift32) next() uint32 {
	s := x.state
	if s == 0 {
		s = 0x9E3779B9
	}
	s ^= s << 13
	s ^= s >> 17
	s ^= s << 5
	x.state = s
	return s
}

func (x *xorshift32) nextBounded(b uint32) uint32 {
	if b == 0 {
		return 0
	}
	return x.next() % b
}
