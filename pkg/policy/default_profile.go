package policy

import (
	"github.com/originhq/origin/pkg/feature"
	"github.com/originhq/origin/pkg/inference"
)

// DefaultProfile is a reference rule set shipped for tenants that haven't
// authored their own; it's ordinary Profile data, not special-cased by
// Evaluate.
func DefaultProfile() *Profile {
	return &Profile{
		ID:      "default",
		Version: 1,
		Rules: []Rule{
			{
				Name:     "risk_critical",
				Decision: DecisionReject,
				Fires: func(_ *feature.Features, s *inference.Signals) bool {
					return s.Risk >= 0.9
				},
			},
			{
				Name:     "synthetic_high_confidence",
				Decision: DecisionReject,
				Fires: func(_ *feature.Features, s *inference.Signals) bool {
					return s.SyntheticLikelihood >= 0.85
				},
			},
			{
				Name:     "risk_high",
				Decision: DecisionQuarantine,
				Fires: func(_ *feature.Features, s *inference.Signals) bool {
					return s.Risk >= 0.7
				},
			},
			{
				Name:     "repeat_offender",
				Decision: DecisionQuarantine,
				Fires: func(f *feature.Features, _ *inference.Signals) bool {
					return f.PriorRejectCount >= 3 || f.PVIDRejectCount >= 3
				},
			},
			{
				Name:     "velocity_spike",
				Decision: DecisionReview,
				Fires: func(f *feature.Features, _ *inference.Signals) bool {
					return f.UploadVelocity24h >= 20 || f.DeviceVelocity24h >= 20
				},
			},
			{
				Name:     "anomaly_elevated",
				Decision: DecisionReview,
				Fires: func(_ *feature.Features, s *inference.Signals) bool {
					return s.Anomaly >= 0.6
				},
			},
			{
				Name:     "low_assurance_new_account",
				Decision: DecisionReview,
				Fires: func(f *feature.Features, s *inference.Signals) bool {
					return f.AccountAgeDays < 1 && s.Assurance < 0.5
				},
			},
		},
	}
}
