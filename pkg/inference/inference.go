// Package inference implements the Inference Service (C5): a thin
// contract around risk/assurance/anomaly/synthetic scoring (spec.md
// §4.5). Training and the model runtime are external collaborators —
// only the inference contract matters here.
package inference

import "time"

// Signals is the per-upload ML output vector. Scores are in [0,1].
type Signals struct {
	Risk                float64   `json:"risk"`
	Assurance           float64   `json:"assurance"`
	Anomaly             float64   `json:"anomaly"`
	SyntheticLikelihood float64   `json:"synthetic_likelihood"`
	RiskModelVersion    string    `json:"risk_model_version"`
	AnomalyModelVersion string    `json:"anomaly_model_version"`
	ComputedAt          time.Time `json:"computed_at"`
}

// Status describes the currently loaded model files, surfaced via
// GET /v1/models/status.
type Status struct {
	LoadedVersions map[string]string `json:"loaded_versions"`
	FileSHA256     map[string]string `json:"file_sha256"`
	LoadedAt       time.Time         `json:"loaded_at"`
}

// Metadata carries submission attributes a scorer may condition on,
// separate from the persisted Features vector.
type Metadata map[string]any

// Scorer produces Signals for a feature vector; implementations may wrap
// a local model file or a remote scoring endpoint.
type Scorer interface {
	Score(features any, metadata Metadata) (Signals, error)
	Status() Status
}
