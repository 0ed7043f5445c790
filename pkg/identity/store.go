package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/originhq/origin/internal/db"
)

// Store upserts and looks up Account/Device rows by tenant-scoped external id.
type Store struct {
	db db.DBTX
}

func NewStore(conn db.DBTX) *Store {
	return &Store{db: conn}
}

// UpsertAccount inserts the account if absent, returning the existing row
// unchanged otherwise — account identity is stable for the life of the
// external id, never overwritten by a later sighting.
func (s *Store) UpsertAccount(ctx context.Context, tenantID uuid.UUID, externalID string) (*Account, error) {
	query := `INSERT INTO accounts (id, tenant_id, external_id, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (tenant_id, external_id) DO UPDATE SET external_id = accounts.external_id
		RETURNING id, tenant_id, external_id, created_at`
	a := &Account{TenantID: tenantID, ExternalID: externalID}
	err := s.db.QueryRow(ctx, query, uuid.New(), tenantID, externalID).Scan(&a.ID, &a.TenantID, &a.ExternalID, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("identity: upserting account: %w", err)
	}
	return a, nil
}

// UpsertDevice inserts the device if absent, returning the existing row otherwise.
func (s *Store) UpsertDevice(ctx context.Context, tenantID uuid.UUID, externalID string) (*Device, error) {
	query := `INSERT INTO devices (id, tenant_id, external_id, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (tenant_id, external_id) DO UPDATE SET external_id = devices.external_id
		RETURNING id, tenant_id, external_id, created_at`
	d := &Device{TenantID: tenantID, ExternalID: externalID}
	err := s.db.QueryRow(ctx, query, uuid.New(), tenantID, externalID).Scan(&d.ID, &d.TenantID, &d.ExternalID, &d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("identity: upserting device: %w", err)
	}
	return d, nil
}

// GetAccount returns an account by tenant-scoped external id.
func (s *Store) GetAccount(ctx context.Context, tenantID uuid.UUID, externalID string) (*Account, error) {
	a := &Account{}
	query := `SELECT id, tenant_id, external_id, created_at FROM accounts WHERE tenant_id = $1 AND external_id = $2`
	err := s.db.QueryRow(ctx, query, tenantID, externalID).Scan(&a.ID, &a.TenantID, &a.ExternalID, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("identity: getting account: %w", err)
	}
	return a, nil
}
