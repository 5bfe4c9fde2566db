package automod

import (
	"testing"
	"time"
)

func TestResolvePicksHighestQualifyingTier(t *testing.T) {
	tiers := []Tier{
		{Threshold: 1, Action: "warn"},
		{Threshold: 5, Action: "timeout", DurationMs: 300_000},
		{Threshold: 25, Action: "kick"},
		{Threshold: 35, Action: "ban"},
	}

	d := Resolve(24, tiers)
	if d == nil {
		t.Fatal("expected a decision for total 24")
	}
	if d.Action != "timeout" || d.Threshold != 5 {
		t.Fatalf("got %s at threshold %d, want timeout at 5", d.Action, d.Threshold)
	}
	if d.Duration != 5*time.Minute {
		t.Fatalf("duration = %s, want 5m", d.Duration)
	}
}

func TestResolveIgnoresSliceOrder(t *testing.T) {
	tiers := []Tier{
		{Threshold: 35, Action: "ban"},
		{Threshold: 1, Action: "warn"},
		{Threshold: 25, Action: "kick"},
		{Threshold: 5, Action: "timeout", DurationMs: 300_000},
	}

	d := Resolve(26, tiers)
	if d == nil || d.Action != "kick" {
		t.Fatalf("got %+v, want kick", d)
	}
}

func TestResolveBelowAllThresholds(t *testing.T) {
	tiers := []Tier{{Threshold: 5, Action: "timeout"}}
	if d := Resolve(4, tiers); d != nil {
		t.Fatalf("got %+v, want nil", d)
	}
}

func TestResolveExactThreshold(t *testing.T) {
	tiers := []Tier{
		{Threshold: 1, Action: "warn"},
		{Threshold: 5, Action: "timeout", DurationMs: 300_000},
	}
	d := Resolve(5, tiers)
	if d == nil || d.Action != "timeout" {
		t.Fatalf("got %+v, want timeout at exact threshold", d)
	}
}

func TestResolveEmptyTiers(t *testing.T) {
	if d := Resolve(100, nil); d != nil {
		t.Fatalf("got %+v, want nil for no tiers", d)
	}
}
