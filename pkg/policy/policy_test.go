package policy

import (
	"testing"

	"github.com/originhq/origin/pkg/feature"
	"github.com/originhq/origin/pkg/inference"
)

func TestEvaluateAllowsByDefault(t *testing.T) {
	profile := DefaultProfile()
	decision, reasons := Evaluate(profile, &feature.Features{AccountAgeDays: 30}, &inference.Signals{Assurance: 1})
	if decision != DecisionAllow {
		t.Fatalf("decision = %q, want ALLOW", decision)
	}
	if len(reasons) != 0 {
		t.Fatalf("expected no reasons, got %v", reasons)
	}
}

func TestEvaluateRejectBeatsQuarantine(t *testing.T) {
	profile := DefaultProfile()
	f := &feature.Features{PriorRejectCount: 5}
	s := &inference.Signals{Risk: 0.95}
	decision, reasons := Evaluate(profile, f, s)
	if decision != DecisionReject {
		t.Fatalf("decision = %q, want REJECT (tie-break over quarantine)", decision)
	}
	if len(reasons) < 2 {
		t.Fatalf("expected multiple reasons to fire, got %v", reasons)
	}
}

func TestEvaluateTieBreakOrder(t *testing.T) {
	profile := &Profile{
		ID:      "test",
		Version: 1,
		Rules: []Rule{
			{Name: "a", Decision: DecisionReview, Fires: func(*feature.Features, *inference.Signals) bool { return true }},
			{Name: "b", Decision: DecisionQuarantine, Fires: func(*feature.Features, *inference.Signals) bool { return true }},
			{Name: "c", Decision: DecisionAllow, Fires: func(*feature.Features, *inference.Signals) bool { return true }},
		},
	}
	decision, _ := Evaluate(profile, &feature.Features{}, &inference.Signals{})
	if decision != DecisionQuarantine {
		t.Fatalf("decision = %q, want QUARANTINE", decision)
	}
}

func TestEvaluateDeterministicAcrossCalls(t *testing.T) {
	profile := DefaultProfile()
	f := &feature.Features{UploadVelocity24h: 25}
	s := &inference.Signals{Anomaly: 0.65}

	d1, r1 := Evaluate(profile, f, s)
	d2, r2 := Evaluate(profile, f, s)
	if d1 != d2 || len(r1) != len(r2) {
		t.Fatalf("expected identical results across repeated evaluation")
	}
}
