package cryptoprovider

import (
	"bytes"
	"context"
	"testing"
)

func TestLocalEncryptDecryptRoundTrip(t *testing.T) {
	p, err := NewLocal("super-secret", "installation-salt-123")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	plaintext := []byte("webhook-shared-secret")
	ciphertext, err := p.Encrypt(context.Background(), plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Equal(ciphertext, plaintext) {
		t.Fatalf("ciphertext must not equal plaintext")
	}

	got, err := p.Decrypt(context.Background(), ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("got %q, want %q", got, plaintext)
	}
}

func TestLocalRejectsEmptySalt(t *testing.T) {
	if _, err := NewLocal("secret", ""); err == nil {
		t.Fatalf("expected error for empty salt")
	}
}

func TestLocalDifferentSaltsDeriveDifferentKeys(t *testing.T) {
	a, err := NewLocal("secret", "salt-a")
	if err != nil {
		t.Fatalf("NewLocal a: %v", err)
	}
	b, err := NewLocal("secret", "salt-b")
	if err != nil {
		t.Fatalf("NewLocal b: %v", err)
	}

	ciphertext, err := a.Encrypt(context.Background(), []byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := b.Decrypt(context.Background(), ciphertext); err == nil {
		t.Fatalf("expected decryption under a different salt to fail")
	}
}
