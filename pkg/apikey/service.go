package apikey

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service authenticates and mints API keys.
type Service struct {
	store                *Store
	serverSecret         string
	logger               *slog.Logger
	legacyBcryptFallback bool
}

func NewService(store *Store, serverSecret string, legacyBcryptFallback bool, logger *slog.Logger) *Service {
	return &Service{
		store:                store,
		serverSecret:         serverSecret,
		legacyBcryptFallback: legacyBcryptFallback,
		logger:               logger,
	}
}

// Create mints a new key for tenantID with the given scopes.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, scopes []Scope) (*CreateResponse, error) {
	for _, sc := range scopes {
		if !ValidScopes[sc] {
			return nil, fmt.Errorf("apikey: invalid scope %q", sc)
		}
	}

	raw, err := generateRawKey()
	if err != nil {
		return nil, fmt.Errorf("apikey: generating key: %w", err)
	}

	k := &ApiKey{
		TenantID: tenantID,
		Prefix:   raw[:PrefixLength],
		Digest:   s.digest(raw),
		Scopes:   scopes,
	}
	if err := s.store.Create(ctx, k); err != nil {
		return nil, fmt.Errorf("apikey: creating: %w", err)
	}

	return &CreateResponse{
		ID:        k.ID,
		Prefix:    k.Prefix,
		RawKey:    raw,
		Scopes:    k.Scopes,
		CreatedAt: k.CreatedAt,
	}, nil
}

// Authenticate resolves a raw API key to its ApiKey record. Lookup is
// O(1): a single indexed query by the key's first 8 characters, followed
// by a constant-time digest comparison across the (normally single)
// candidate rows sharing that prefix (spec.md §4.12).
func (s *Service) Authenticate(ctx context.Context, rawKey string) (*ApiKey, error) {
	if len(rawKey) < PrefixLength {
		return nil, fmt.Errorf("apikey: key shorter than prefix length")
	}
	prefix := rawKey[:PrefixLength]

	candidates, err := s.store.FindByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("apikey: looking up prefix: %w", err)
	}

	digest := s.digest(rawKey)
	for i := range candidates {
		k := &candidates[i]
		if k.Revoked() {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(digest), []byte(k.Digest)) == 1 {
			s.touchAsync(k.ID)
			return k, nil
		}
		if s.legacyBcryptFallback && k.LegacyHash != "" {
			if bcrypt.CompareHashAndPassword([]byte(k.LegacyHash), []byte(rawKey)) == nil {
				s.touchAsync(k.ID)
				return k, nil
			}
		}
	}

	return nil, fmt.Errorf("apikey: no matching key")
}

// touchAsync updates last_used_at off the request's hot path, matching
// the spec's "updated asynchronously" requirement.
func (s *Service) touchAsync(id uuid.UUID) {
	go func() {
		if err := s.store.TouchLastUsed(context.Background(), id); err != nil {
			s.logger.Error("apikey: updating last_used_at", "error", err, "key_id", id)
		}
	}()
}

func (s *Service) digest(rawKey string) string {
	mac := hmac.New(sha256.New, []byte(s.serverSecret))
	mac.Write([]byte(rawKey))
	return hex.EncodeToString(mac.Sum(nil))
}

// generateRawKey returns a fresh high-entropy key. Its own prefix is
// always its first PrefixLength characters — the invariant spec.md §8
// requires holds by construction, not by a separate check.
func generateRawKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
