package cryptoprovider

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Local derives an AES-256-GCM key via HKDF-SHA256 from a server secret and
// a per-installation random salt. The salt must be supplied via
// configuration, never a fixed constant, so two installations sharing a
// server secret still derive distinct keys (spec §4.2).
type Local struct {
	gcm cipher.AEAD
}

// NewLocal derives the AEAD key from secret and salt. Both must be
// non-empty; the composition root is responsible for refusing this
// variant outside development/test.
func NewLocal(secret, salt string) (*Local, error) {
	if secret == "" {
		return nil, fmt.Errorf("cryptoprovider: local encryption requires a non-empty server secret")
	}
	if salt == "" {
		return nil, fmt.Errorf("cryptoprovider: local encryption requires a non-empty installation salt")
	}

	kdf := hkdf.New(sha256.New, []byte(secret), []byte(salt), []byte("origin-webhook-secret-v1"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("cryptoprovider: deriving key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptoprovider: building cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptoprovider: building AEAD: %w", err)
	}

	return &Local{gcm: gcm}, nil
}

func (l *Local) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, l.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("cryptoprovider: generating nonce: %w", err)
	}
	return l.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (l *Local) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	nonceSize := l.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("cryptoprovider: ciphertext shorter than nonce")
	}
	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := l.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("cryptoprovider: decrypting: %w", err)
	}
	return plaintext, nil
}
