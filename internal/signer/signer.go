// Package signer implements ORIGIN's certificate-signing abstraction (C1):
// a small polymorphic interface with two variants, Local and KMS, both
// advertising the same algorithm so a certificate's alg field, its JWKS
// entry, and the bytes actually used to sign it can never disagree.
package signer

import (
	"context"

	"github.com/go-jose/go-jose/v4"
)

// Alg is the single signing algorithm ORIGIN issues certificates with.
// RSASSA-PSS with SHA-256, MGF1-SHA256, salt length equal to the hash
// length — RS256 is explicitly forbidden even for the KMS variant (spec
// §9, Open Question 3).
const Alg = "PS256"

// Signer signs certificate payloads and publishes the public keys needed
// to verify them.
type Signer interface {
	// Sign returns the raw signature bytes over payload and the id of the
	// key used.
	Sign(ctx context.Context, payload []byte) (signature []byte, keyID string, err error)

	// PublicJWKS returns the keys published for verification as RFC 7517
	// JSON Web Keys. The Local and KMS variants publish only the active
	// key; predecessor keys are not listed.
	PublicJWKS(ctx context.Context) ([]jose.JSONWebKey, error)

	// ActiveKeyID returns the id of the key new signatures are issued
	// under.
	ActiveKeyID() string
}
