// Package policy implements the Policy Engine (C6): a pure, deterministic
// mapping from (profile, features, signals) to a decision and its reasons
// (spec.md §4.6). ML signals are inputs, never overriding authorities.
package policy

import (
	"github.com/originhq/origin/pkg/feature"
	"github.com/originhq/origin/pkg/inference"
)

// Decision is one of the four binding outcomes, ordered by the tie-break
// precedence REJECT > QUARANTINE > REVIEW > ALLOW.
type Decision string

const (
	DecisionAllow      Decision = "ALLOW"
	DecisionReview     Decision = "REVIEW"
	DecisionQuarantine Decision = "QUARANTINE"
	DecisionReject     Decision = "REJECT"
)

// decisionRank orders decisions for tie-breaking: higher wins.
var decisionRank = map[Decision]int{
	DecisionAllow:      0,
	DecisionReview:      1,
	DecisionQuarantine: 2,
	DecisionReject:     3,
}

// Rule is a single named threshold check. Reasons are emitted by rule
// name so certificates and evidence packs can cite exactly what fired.
type Rule struct {
	Name     string
	Decision Decision
	Fires    func(f *feature.Features, s *inference.Signals) bool
}

// Profile is a versioned, opaque rule set (spec.md §9 Open Question 1:
// exact thresholds are data, not code). Changing Version alone changes
// every downstream outputs_hash even for identical inputs.
type Profile struct {
	ID      string
	Version int
	Rules   []Rule
}

// Evaluate runs every rule and returns the highest-ranked decision among
// those that fired, or ALLOW if none did. reasons lists every rule name
// that fired, not just the winner, for auditability.
func Evaluate(profile *Profile, f *feature.Features, s *inference.Signals) (Decision, []string) {
	decision := DecisionAllow
	var reasons []string

	for _, rule := range profile.Rules {
		if !rule.Fires(f, s) {
			continue
		}
		reasons = append(reasons, rule.Name)
		if decisionRank[rule.Decision] > decisionRank[decision] {
			decision = rule.Decision
		}
	}

	return decision, reasons
}
