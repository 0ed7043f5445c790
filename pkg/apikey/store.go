package apikey

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/originhq/origin/internal/db"
)

const apiKeyColumns = `id, tenant_id, prefix, digest, legacy_hash, scopes, last_used_at, created_at, revoked_at`

// Store provides O(1)-by-prefix API-key lookups.
type Store struct {
	db db.DBTX
}

func NewStore(conn db.DBTX) *Store {
	return &Store{db: conn}
}

func scanRow(row pgx.Row) (ApiKey, error) {
	var k ApiKey
	var scopes []string
	err := row.Scan(&k.ID, &k.TenantID, &k.Prefix, &k.Digest, &k.LegacyHash, &scopes, &k.LastUsedAt, &k.CreatedAt, &k.RevokedAt)
	if err != nil {
		return ApiKey{}, err
	}
	k.Scopes = make([]Scope, len(scopes))
	for i, s := range scopes {
		k.Scopes[i] = Scope(s)
	}
	return k, nil
}

// FindByPrefix returns every (normally one) candidate key sharing a raw
// key's 8-character prefix, so the caller can compare digests in constant
// time without a second indexed lookup.
func (s *Store) FindByPrefix(ctx context.Context, prefix string) ([]ApiKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE prefix = $1`
	rows, err := s.db.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("apikey: querying by prefix: %w", err)
	}
	defer rows.Close()

	var out []ApiKey
	for rows.Next() {
		k, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("apikey: scanning row: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Create inserts a new key row.
func (s *Store) Create(ctx context.Context, k *ApiKey) error {
	k.ID = uuid.New()
	scopes := make([]string, len(k.Scopes))
	for i, sc := range k.Scopes {
		scopes[i] = string(sc)
	}

	query := `INSERT INTO api_keys (id, tenant_id, prefix, digest, legacy_hash, scopes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now()) RETURNING created_at`
	return s.db.QueryRow(ctx, query, k.ID, k.TenantID, k.Prefix, k.Digest, k.LegacyHash, scopes).Scan(&k.CreatedAt)
}

// TouchLastUsed updates last_used_at. Called from a best-effort background
// goroutine by the authenticator, never on the request's hot path.
func (s *Store) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx, `UPDATE api_keys SET last_used_at = now() WHERE id = $1`, id)
	return err
}

// FindActiveByTenant returns every non-revoked key belonging to a tenant,
// used by key rotation to find what needs revoking.
func (s *Store) FindActiveByTenant(ctx context.Context, tenantID uuid.UUID) ([]ApiKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE tenant_id = $1 AND revoked_at IS NULL`
	rows, err := s.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("apikey: querying active keys by tenant: %w", err)
	}
	defer rows.Close()

	var out []ApiKey
	for rows.Next() {
		k, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("apikey: scanning row: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Revoke marks a key revoked.
func (s *Store) Revoke(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `UPDATE api_keys SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("apikey: revoking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
