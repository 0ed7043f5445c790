package inference

import "testing"

func TestLocalScoreDeterministic(t *testing.T) {
	l := NewLocal("risk-v1", "anomaly-v1")
	features := map[string]any{"upload_velocity_24h": 3}

	a, err := l.Score(features, Metadata{"title": "x"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	b, err := l.Score(features, Metadata{"title": "x"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if a.Risk != b.Risk || a.Anomaly != b.Anomaly {
		t.Fatalf("expected deterministic scores for identical inputs")
	}
	if a.RiskModelVersion != "risk-v1" || a.AnomalyModelVersion != "anomaly-v1" {
		t.Fatalf("unexpected model versions: %+v", a)
	}
}

func TestLocalScoreBounded(t *testing.T) {
	l := NewLocal("risk-v1", "anomaly-v1")
	s, err := l.Score(map[string]any{"a": 1}, nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	for _, v := range []float64{s.Risk, s.Assurance, s.Anomaly, s.SyntheticLikelihood} {
		if v < 0 || v > 1 {
			t.Fatalf("score out of [0,1]: %v", v)
		}
	}
}

func TestLocalScoreDiffersAcrossInputs(t *testing.T) {
	l := NewLocal("risk-v1", "anomaly-v1")
	a, _ := l.Score(map[string]any{"upload_velocity_24h": 1}, nil)
	b, _ := l.Score(map[string]any{"upload_velocity_24h": 99}, nil)
	if a.Risk == b.Risk {
		t.Fatalf("expected differing risk scores across differing features")
	}
}
