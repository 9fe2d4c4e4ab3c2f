package pathselect

import (
	"testing"

	"github.com/aftahi334/alpha-smart-router/internal/routing/policybinding"
	"github.com/aftahi334/alpha-smart-router/internal/routing/pop"
	"github.com/aftahi334/alpha-smart-router/internal/routing/seqslot"
)

func candWithMetrics(id pop.PathId, m seqslot.PathMetrics) policybinding.CandidateRef {
	var s seqslot.Slot
	seqslot.Publish(&s, m)
	return policybinding.CandidateRef{ID: id, Slot: &s}
}

func TestRoundRobinSkipsUnhealthy(t *testing.T) {
	p := NewRoundRobinPolicy()
	cands := []policybinding.CandidateRef{
		candWithMetrics(1, seqslot.PathMetrics{Healthy: false}),
		candWithMetrics(2, seqslot.PathMetrics{Healthy: true}),
	}
	for i := 0; i < 4; i++ {
		got := p.Choose(cands, pop.PacketContext{})
		if got != 2 {
			t.Fatalf("iteration %d: got %d, want the only healthy candidate (2)", i, got)
		}
	}
}

func TestRoundRobinEmptyReturnsZero(t *testing.T) {
	p := NewRoundRobinPolicy()
	if got := p.Choose(nil, pop.PacketContext{}); got != 0 {
		t.Fatalf("got %d, want 0 for no candidates", got)
	}
}

func TestFlowHashPolicyMapsDeterministically(t *testing.T) {
	p := NewFlowHashPolicy(false)
	cands := []policybinding.CandidateRef{
		candWithMetrics(1, seqslot.PathMetrics{Healthy: true}),
		candWithMetrics(2, seqslot.PathMetrics{Healthy: true}),
		candWithMetrics(3, seqslot.PathMetrics{Healthy: true}),
	}
	pkt := pop.PacketContext{FlowHash: 7}
	want := p.Choose(cands, pkt)
	for i := 0; i < 5; i++ {
		if got := p.Choose(cands, pkt); got != want {
			t.Fatalf("flow hash policy should be stable for the same flow hash, got %d want %d", got, want)
		}
	}
}

func TestFlowHashPolicySkipsUnhealthyWhenConfigured(t *testing.T) {
	p := NewFlowHashPolicy(true)
	cands := []policybinding.CandidateRef{
		candWithMetrics(1, seqslot.PathMetrics{Healthy: false}),
		candWithMetrics(2, seqslot.PathMetrics{Healthy: true}),
	}
	pkt := pop.PacketContext{FlowHash: 0} // base index 0 maps to the unhealthy candidate
	if got := p.Choose(cands, pkt); got != 2 {
		t.Fatalf("got %d, want the policy to skip forward to the healthy candidate (2)", got)
	}
}

func TestLatencyAwarePicksLowestRTT(t *testing.T) {
	p := NewLatencyAwarePolicy(LatencyAwareConfig{TieMarginUs: 0, PreferQosClass: false})
	cands := []policybinding.CandidateRef{
		candWithMetrics(1, seqslot.PathMetrics{Healthy: true, RttUs: 5000}),
		candWithMetrics(2, seqslot.PathMetrics{Healthy: true, RttUs: 1000}),
		candWithMetrics(3, seqslot.PathMetrics{Healthy: true, RttUs: 3000}),
	}
	if got := p.Choose(cands, pop.PacketContext{}); got != 2 {
		t.Fatalf("got %d, want the lowest-RTT candidate (2)", got)
	}
}

func TestLatencyAwareFallsBackWhenNoneHealthy(t *testing.T) {
	p := NewLatencyAwarePolicy(DefaultLatencyAwareConfig())
	cands := []policybinding.CandidateRef{
		candWithMetrics(1, seqslot.PathMetrics{Healthy: false, RttUs: 9000}),
		candWithMetrics(2, seqslot.PathMetrics{Healthy: false, RttUs: 1000}),
	}
	if got := p.Choose(cands, pop.PacketContext{}); got != 2 {
		t.Fatalf("got %d, want the absolute minimum RTT candidate even when unhealthy (2)", got)
	}
}

func TestLatencyAwareEmptyReturnsZero(t *testing.T) {
	p := NewLatencyAwarePolicy(DefaultLatencyAwareConfig())
	if got := p.Choose(nil, pop.PacketContext{}); got != 0 {
		t.Fatalf("got %d, want 0 for no candidates", got)
	}
}
