// Package feature implements the Feature Service (C4): per-upload
// signals computed from persistent history via single aggregate queries
// (spec.md §4.4).
package feature

import "time"

// Features is the computed vector persisted on the Upload for replay and
// explainability (spec.md §3 Upload.decision_inputs_json).
type Features struct {
	AccountAgeDays       int     `json:"account_age_days"`
	UploadVelocity24h    int     `json:"upload_velocity_24h"`
	DeviceVelocity24h    int     `json:"device_velocity_24h"`
	PriorQuarantineCount int     `json:"prior_quarantine_count"`
	PriorRejectCount     int     `json:"prior_reject_count"`
	PVIDQuarantineCount  int     `json:"pvid_quarantine_count"`
	PVIDRejectCount      int     `json:"pvid_reject_count"`
	ComputedAt           time.Time `json:"computed_at"`
}
