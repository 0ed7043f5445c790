// Package apikey implements ORIGIN's API-key credential (spec.md §3, §4.12):
// O(1) prefix-indexed lookup, HMAC-SHA256 digesting, and per-route scope
// enforcement.
package apikey

import (
	"time"

	"github.com/google/uuid"
)

// Scope is one of the fixed set of capabilities an ApiKey may hold.
type Scope string

const (
	ScopeIngestWrite       Scope = "ingest:write"
	ScopeEvidenceWrite     Scope = "evidence:write"
	ScopeEvidenceRead      Scope = "evidence:read"
	ScopeWebhooksWrite     Scope = "webhooks:write"
	ScopeWebhooksRead      Scope = "webhooks:read"
	ScopeCertificatesRead  Scope = "certificates:read"
	ScopeAdmin             Scope = "admin"
)

// ValidScopes is the complete set an ApiKey's scopes must be drawn from.
var ValidScopes = map[Scope]bool{
	ScopeIngestWrite:      true,
	ScopeEvidenceWrite:    true,
	ScopeEvidenceRead:     true,
	ScopeWebhooksWrite:    true,
	ScopeWebhooksRead:     true,
	ScopeCertificatesRead: true,
	ScopeAdmin:            true,
}

// PrefixLength is the number of raw-key characters used as the indexed
// lookup prefix (spec.md §3: "prefix is the first 8 characters").
const PrefixLength = 8

// ApiKey is the persisted record. The raw key is never stored — only its
// prefix (for O(1) lookup) and HMAC digest (for verification).
type ApiKey struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Prefix     string
	Digest     string
	LegacyHash string // non-empty only for bcrypt-fallback rows (LEGACY_APIKEY_FALLBACK)
	Scopes     []Scope
	LastUsedAt *time.Time
	CreatedAt  time.Time
	RevokedAt  *time.Time
}

// HasScope reports whether the key carries the given scope, or the
// blanket admin scope.
func (k *ApiKey) HasScope(s Scope) bool {
	for _, have := range k.Scopes {
		if have == s || have == ScopeAdmin {
			return true
		}
	}
	return false
}

// Revoked reports whether the key has been revoked.
func (k *ApiKey) Revoked() bool {
	return k.RevokedAt != nil
}

// CreateRequest is the admin-facing request to mint a new key.
type CreateRequest struct {
	Scopes []Scope `json:"scopes" validate:"required,min=1"`
}

// CreateResponse includes the raw key, shown only once.
type CreateResponse struct {
	ID        uuid.UUID `json:"id"`
	Prefix    string    `json:"prefix"`
	RawKey    string    `json:"raw_key"`
	Scopes    []Scope   `json:"scopes"`
	CreatedAt time.Time `json:"created_at"`
}
