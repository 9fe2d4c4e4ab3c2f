package failover

import (
	"testing"
	"time"

	"github.com/aftahi334/alpha-smart-router/internal/routing/qos"
)

func scores(vals map[string]float64) []qos.Score {
	out := make([]qos.Score, 0, len(vals))
	for id, v := range vals {
		out = append(out, qos.Score{PathID: id, Value: v, WithinThresholds: true})
	}
	return out
}

func TestEvaluateSwitchesWhenCurrentIsDown(t *testing.T) {
	p := New(DefaultConfig())
	health := []PathHealth{
		{PathID: "a", State: Down, LastChange: time.Now()},
		{PathID: "b", State: Up, LastChange: time.Now()},
	}
	d, ok := p.Evaluate("a", scores(map[string]float64{"a": 0.9, "b": 0.5}), health, time.Now())
	if !ok || d.NextPathID != "b" || d.Reason != "current_down" {
		t.Fatalf("got %+v, ok=%v, want switch to b with reason current_down", d, ok)
	}
}

func TestEvaluateKeepsCurrentWithoutMargin(t *testing.T) {
	p := New(DefaultConfig())
	now := time.Now()
	health := []PathHealth{
		{PathID: "a", State: Up, LastChange: now.Add(-time.Hour)},
		{PathID: "b", State: Up, LastChange: now.Add(-time.Hour)},
	}
	// b is only marginally better than a; default ImprovePctToSwitch is 0.10
	d, switched := p.Evaluate("a", scores(map[string]float64{"a": 0.80, "b": 0.82}), health, now)
	if switched {
		t.Fatalf("should not switch for a marginal improvement, got %+v", d)
	}
}

func TestEvaluateSwitchesWithSufficientMargin(t *testing.T) {
	p := New(DefaultConfig())
	now := time.Now()
	health := []PathHealth{
		{PathID: "a", State: Up, LastChange: now.Add(-time.Hour)},
		{PathID: "b", State: Up, LastChange: now.Add(-time.Hour)},
	}
	d, switched := p.Evaluate("a", scores(map[string]float64{"a": 0.50, "b": 0.90}), health, now)
	if !switched || d.NextPathID != "b" || d.Reason != "better_candidate_with_margin" {
		t.Fatalf("got %+v, switched=%v, want switch to b", d, switched)
	}
}

func TestEvaluateRespectsMinHold(t *testing.T) {
	p := New(DefaultConfig())
	now := time.Now()
	health := []PathHealth{
		{PathID: "a", State: Up, LastChange: now}, // just changed, inside MinHoldMs
		{PathID: "b", State: Up, LastChange: now.Add(-time.Hour)},
	}
	d, switched := p.Evaluate("a", scores(map[string]float64{"a": 0.50, "b": 0.90}), health, now)
	if switched {
		t.Fatalf("should not switch within MinHoldMs of the current path's last change, got %+v", d)
	}
}

func TestEvaluateReturnsToPrimaryWhenRecovered(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PrimaryPathID = "primary"
	p := New(cfg)
	now := time.Now()
	health := []PathHealth{
		{PathID: "primary", State: Up, LastChange: now.Add(-time.Hour)},
		{PathID: "backup", State: Up, LastChange: now.Add(-time.Hour)},
	}
	d, switched := p.Evaluate("backup", scores(map[string]float64{"primary": 0.80, "backup": 0.80}), health, now)
	if !switched || d.NextPathID != "primary" || d.Reason != "return_to_primary" {
		t.Fatalf("got %+v, switched=%v, want return to primary", d, switched)
	}
}

func TestEvaluateNoCandidatesReturnsNotOK(t *testing.T) {
	p := New(DefaultConfig())
	_, ok := p.Evaluate("a", nil, nil, time.Now())
	if ok {
		t.Fatal("expected no decision when there are no scored candidates")
	}
}

func TestEvaluateUnscoredButHealthyCurrentPicksNoCurrentScore(t *testing.T) {
	p := New(DefaultConfig())
	now := time.Now()
	// "a" is healthy but has no QoS score yet (e.g. fresh metrics slot);
	// "b" is both healthy and scored.
	health := []PathHealth{
		{PathID: "a", State: Up, LastChange: now},
		{PathID: "b", State: Up, LastChange: now},
	}
	d, switched := p.Evaluate("a", scores(map[string]float64{"b": 0.5}), health, now)
	if !switched || d.NextPathID != "b" || d.Reason != "no_current_score" {
		t.Fatalf("got %+v, switched=%v, want switch to b with reason no_current_score", d, switched)
	}
}
