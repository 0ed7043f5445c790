package inference

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/originhq/origin/internal/canon"
)

// Local is a deterministic, file-free scorer: the actual model runtime is
// an external collaborator (spec.md §1 Out of scope), so this derives
// reproducible scores from the canonical feature encoding, exercising the
// exact contract callers depend on (bounded [0,1] outputs, stable
// model-version metadata) without requiring a model artifact.
type Local struct {
	riskModelVersion    string
	anomalyModelVersion string
	loadedAt            time.Time
	fileSHA256          map[string]string
}

func NewLocal(riskModelVersion, anomalyModelVersion string) *Local {
	return &Local{
		riskModelVersion:    riskModelVersion,
		anomalyModelVersion: anomalyModelVersion,
		loadedAt:            time.Now(),
		fileSHA256: map[string]string{
			riskModelVersion:    sha256Hex(riskModelVersion),
			anomalyModelVersion: sha256Hex(anomalyModelVersion),
		},
	}
}

func (l *Local) Score(features any, metadata Metadata) (Signals, error) {
	now := time.Now()
	payload := map[string]any{"features": features, "metadata": metadata}
	digest, err := canon.Hash(payload)
	if err != nil {
		return Signals{}, err
	}

	return Signals{
		Risk:                unitFloatFromHash(digest, 0),
		Assurance:           unitFloatFromHash(digest, 8),
		Anomaly:             unitFloatFromHash(digest, 16),
		SyntheticLikelihood: unitFloatFromHash(digest, 24),
		RiskModelVersion:    l.riskModelVersion,
		AnomalyModelVersion: l.anomalyModelVersion,
		ComputedAt:          now,
	}, nil
}

func (l *Local) Status() Status {
	return Status{
		LoadedVersions: map[string]string{
			"risk":    l.riskModelVersion,
			"anomaly": l.anomalyModelVersion,
		},
		FileSHA256: l.fileSHA256,
		LoadedAt:   l.loadedAt,
	}
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// unitFloatFromHash reads 8 hex characters at offset from digest and maps
// the resulting uint32 onto [0,1].
func unitFloatFromHash(digest string, offset int) float64 {
	if offset+8 > len(digest) {
		offset = 0
	}
	b, err := hex.DecodeString(digest[offset : offset+8])
	if err != nil || len(b) < 4 {
		return 0
	}
	v := binary.BigEndian.Uint32(b)
	return float64(v) / float64(^uint32(0))
}
