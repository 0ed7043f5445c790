package signer

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// Local signs with an in-process RSA private key. Startup must refuse this
// variant outside development (spec §4.1) — that check lives in the
// composition root, which is the only place that knows the environment.
type Local struct {
	key   *rsa.PrivateKey
	keyID string
}

// NewLocal parses a PEM-encoded PKCS#1 or PKCS#8 RSA private key and
// assigns it keyID for JWKS publication.
func NewLocal(pemBytes []byte, keyID string) (*Local, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("signer: no PEM block found in local signing key")
	}

	key, err := parseRSAKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("signer: parsing local signing key: %w", err)
	}
	if key.N.BitLen() < 2048 {
		return nil, fmt.Errorf("signer: local signing key must be at least 2048 bits, got %d", key.N.BitLen())
	}
	if keyID == "" {
		return nil, fmt.Errorf("signer: local signing key requires a non-empty key id")
	}

	return &Local{key: key, keyID: keyID}, nil
}

func parseRSAKey(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	k, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	rsaKey, ok := k.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("PKCS8 key is not an RSA key")
	}
	return rsaKey, nil
}

func (l *Local) Sign(_ context.Context, payload []byte) ([]byte, string, error) {
	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPSS(rand.Reader, l.key, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
		Hash:       crypto.SHA256,
	})
	if err != nil {
		return nil, "", fmt.Errorf("signer: local sign: %w", err)
	}
	return sig, l.keyID, nil
}

func (l *Local) PublicJWKS(_ context.Context) ([]jose.JSONWebKey, error) {
	return []jose.JSONWebKey{{
		Key:       &l.key.PublicKey,
		KeyID:     l.keyID,
		Algorithm: Alg,
		Use:       "sig",
	}}, nil
}

func (l *Local) ActiveKeyID() string { return l.keyID }
