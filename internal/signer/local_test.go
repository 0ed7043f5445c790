package signer

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
)

func generateTestKeyPEM(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating test key: %v", err)
	}
	der := x509.MarshalPKCS1PrivateKey(key)
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der})
}

func TestLocalSignAndVerify(t *testing.T) {
	pemBytes := generateTestKeyPEM(t)
	s, err := NewLocal(pemBytes, "test-key-1")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	payload := []byte(`{"hello":"world"}`)
	sig, keyID, err := s.Sign(context.Background(), payload)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if keyID != "test-key-1" {
		t.Fatalf("got key id %q, want test-key-1", keyID)
	}
	if len(sig) == 0 {
		t.Fatalf("expected non-empty signature")
	}

	jwks, err := s.PublicJWKS(context.Background())
	if err != nil {
		t.Fatalf("PublicJWKS: %v", err)
	}
	if len(jwks) != 1 {
		t.Fatalf("expected 1 JWK, got %d", len(jwks))
	}
	if jwks[0].Algorithm != Alg {
		t.Fatalf("got alg %q, want %q", jwks[0].Algorithm, Alg)
	}
	if jwks[0].KeyID != "test-key-1" {
		t.Fatalf("got kid %q, want test-key-1", jwks[0].KeyID)
	}
}

func TestLocalRejectsShortKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("generating short key: %v", err)
	}
	der := x509.MarshalPKCS1PrivateKey(key)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der})

	if _, err := NewLocal(pemBytes, "k1"); err == nil {
		t.Fatalf("expected error for sub-2048-bit key")
	}
}
