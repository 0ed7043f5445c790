package certificate

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/originhq/origin/internal/signer"
)

func testLocalSigner(t *testing.T) signer.Signer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating test key: %v", err)
	}
	der := x509.MarshalPKCS1PrivateKey(key)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der})

	local, err := signer.NewLocal(pemBytes, "test-key-1")
	if err != nil {
		t.Fatalf("signer.NewLocal: %v", err)
	}
	return local
}

func TestIssueProducesVerifiableSignature(t *testing.T) {
	s := NewService(testLocalSigner(t))
	ctx := context.Background()

	cert, err := s.Issue(ctx, uuid.New(), uuid.New(),
		Inputs{PolicyVersion: 1, Features: map[string]any{"a": 1}, Signals: map[string]any{"risk": 0.1}},
		Outputs{Decision: "ALLOW"},
		"ledgerhash123",
		time.Unix(1700000000, 0).UTC(),
	)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if cert.Alg != "PS256" {
		t.Errorf("Alg = %q, want PS256", cert.Alg)
	}
	if cert.Signature == "" {
		t.Errorf("expected non-empty signature")
	}
	if cert.InputsHash == "" || cert.OutputsHash == "" {
		t.Errorf("expected non-empty input/output hashes")
	}
}

func TestIssuePolicyVersionAffectsOutputsHash(t *testing.T) {
	s := NewService(testLocalSigner(t))
	ctx := context.Background()
	now := time.Unix(1700000000, 0).UTC()

	inputsA := Inputs{PolicyVersion: 1, Features: map[string]any{}, Signals: map[string]any{}}
	inputsB := Inputs{PolicyVersion: 2, Features: map[string]any{}, Signals: map[string]any{}}
	outputs := Outputs{Decision: "ALLOW"}

	certA, err := s.Issue(ctx, uuid.New(), uuid.New(), inputsA, outputs, "lh", now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	certB, err := s.Issue(ctx, uuid.New(), uuid.New(), inputsB, outputs, "lh", now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if certA.InputsHash == certB.InputsHash {
		t.Errorf("expected differing policy versions to change inputs_hash")
	}
}
