// Package cryptoprovider implements ORIGIN's at-rest encryption
// abstraction (C2) for webhook secrets: a Local HKDF-derived AES-256-GCM
// variant for development/test, and a KMS-backed variant for everything
// else.
package cryptoprovider

import "context"

// Provider encrypts and decrypts small secrets at rest (webhook shared
// secrets). It is never used for bulk data.
type Provider interface {
	Encrypt(ctx context.Context, plaintext []byte) (ciphertext []byte, err error)
	Decrypt(ctx context.Context, ciphertext []byte) (plaintext []byte, err error)
}
