// Package seqslot publishes PathMetrics from a single control-plane writer
// to many data-plane readers via a seqlock. Readers use acquire-and-recheck;
// the writer publishes with a release. This avoids a mutex on the hottest
// read path in the router (per-packet path selection).
package seqslot

import (
	"math"
	"sync/atomic"
)

// PathMetrics is the per-path health/quality snapshot visible to policies.
// It unifies the informational shape ({rtt_us, one_way_delay_us, loss_ppm,
// avail_kbps, qos_class, healthy}) and the QoS-scoring shape
// ({path_id, latency_us, jitter_us, loss}) into one record; JitterUs is the
// one scoring-shape field the informational shape lacks, and LossPpm serves
// both shapes (scoring reads it as a fraction, LossPpm / 1e6).
type PathMetrics struct {
	RttUs         uint32
	OneWayDelayUs uint32
	JitterUs      uint32
	LossPpm       uint32
	AvailKbps     uint32
	QosClass      uint8
	Healthy       bool
}

// DefaultPathMetrics is the zero-value-safe default: unreachable latency,
// unhealthy. This mirrors the original implementation's use of
// numeric_limits<uint32_t>::max() as the sentinel "no measurement yet".
func DefaultPathMetrics() PathMetrics {
	return PathMetrics{RttUs: math.MaxUint32, OneWayDelayUs: math.MaxUint32}
}

// Slot guards one PathMetrics value with a seqlock. seq is even while the
// value is stable and odd while a writer is publishing.
type Slot struct {
	seq     atomic.Uint32
	metrics PathMetrics
}

// Publish writes m into s. Single writer per slot; callers must not call
// Publish concurrently from two goroutines on the same slot.
func Publish(s *Slot, m PathMetrics) {
	start := s.seq.Load()
	s.seq.Store(start | 1)
	s.metrics = m
	s.seq.Store((start | 1) + 1)
}

// Load attempts a lock-free snapshot read of s, retrying up to 4 times.
// ok is false only if a writer kept the slot busy across every retry.
func Load(s *Slot) (m PathMetrics, ok bool) {
	for i := 0; i < 4; i++ {
		s1 := s.seq.Load()
		if s1&1 != 0 {
			continue
		}
		snap := s.metrics
		s2 := s.seq.Load()
		if s1 == s2 && s2%2 == 0 {
			return snap, true
		}
	}
	return PathMetrics{}, false
}
