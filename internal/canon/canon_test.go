package canon

import "testing"

func TestMarshalSortsKeys(t *testing.T) {
	in := map[string]any{"b": 1, "a": 2, "c": 3}
	got, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"a":2,"b":1,"c":3}`
	if string(got) != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestMarshalIntegerVsFloatForm(t *testing.T) {
	type payload struct {
		Whole float64 `json:"whole"`
	}

	got, err := Marshal(payload{Whole: 1.0})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"whole":1}`
	if string(got) != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestMarshalDeterministicAcrossMapOrdering(t *testing.T) {
	a := map[string]any{"x": 1, "y": map[string]any{"n": 2, "m": 1}}
	b := map[string]any{"y": map[string]any{"m": 1, "n": 2}, "x": 1}

	gotA, err := Marshal(a)
	if err != nil {
		t.Fatalf("Marshal a: %v", err)
	}
	gotB, err := Marshal(b)
	if err != nil {
		t.Fatalf("Marshal b: %v", err)
	}
	if string(gotA) != string(gotB) {
		t.Fatalf("expected deterministic output, got %s vs %s", gotA, gotB)
	}
}

func TestHashStableForEquivalentValues(t *testing.T) {
	h1, err := Hash(map[string]any{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := Hash(map[string]any{"b": 2, "a": 1})
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected equal hashes, got %s vs %s", h1, h2)
	}
}

func TestHashDiffersForDifferentValues(t *testing.T) {
	h1, err := Hash(map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := Hash(map[string]any{"a": 2})
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("expected different hashes for different inputs")
	}
}
