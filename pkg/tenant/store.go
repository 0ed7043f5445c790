package tenant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/originhq/origin/internal/db"
)

// Store persists Tenant rows.
type Store struct {
	db db.DBTX
}

func NewStore(conn db.DBTX) *Store {
	return &Store{db: conn}
}

// Create inserts a new tenant with a generated id.
func (s *Store) Create(ctx context.Context, t *Tenant) error {
	t.ID = uuid.New()

	rateLimit, err := json.Marshal(t.RateLimit)
	if err != nil {
		return fmt.Errorf("tenant: marshaling rate limit config: %w", err)
	}
	allowlist, err := json.Marshal(t.IPAllowlist)
	if err != nil {
		return fmt.Errorf("tenant: marshaling ip allowlist: %w", err)
	}

	const q = `
		INSERT INTO tenants (id, name, ip_allowlist, rate_limit, policy_profile_id, policy_profile_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING created_at`
	return s.db.QueryRow(ctx, q, t.ID, t.Name, allowlist, rateLimit, t.PolicyProfileID, t.PolicyProfileVer).Scan(&t.CreatedAt)
}

// GetByID loads a tenant by id.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	const q = `
		SELECT id, name, ip_allowlist, rate_limit, policy_profile_id, policy_profile_version, created_at
		FROM tenants WHERE id = $1`

	var t Tenant
	var allowlist, rateLimit []byte
	err := s.db.QueryRow(ctx, q, id).Scan(&t.ID, &t.Name, &allowlist, &rateLimit, &t.PolicyProfileID, &t.PolicyProfileVer, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("tenant: loading %s: %w", id, err)
	}
	if err := json.Unmarshal(allowlist, &t.IPAllowlist); err != nil {
		return nil, fmt.Errorf("tenant: decoding ip allowlist: %w", err)
	}
	if err := json.Unmarshal(rateLimit, &t.RateLimit); err != nil {
		return nil, fmt.Errorf("tenant: decoding rate limit config: %w", err)
	}
	return &t, nil
}
