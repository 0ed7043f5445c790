package upload

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/originhq/origin/internal/db"
)

const uploadColumns = `id, tenant_id, external_id, account_id, device_id, pvid, received_at, metadata, decision_inputs_json, decision, certificate_id, ledger_tenant_seq`

// Store persists Upload rows.
type Store struct {
	db db.DBTX
}

func NewStore(conn db.DBTX) *Store {
	return &Store{db: conn}
}

func scanRow(row pgx.Row) (Upload, error) {
	var u Upload
	err := row.Scan(&u.ID, &u.TenantID, &u.ExternalID, &u.AccountID, &u.DeviceID, &u.PVID, &u.ReceivedAt,
		&u.Metadata, &u.DecisionInputsJSON, &u.Decision, &u.CertificateID, &u.LedgerTenantSeq)
	return u, err
}

// Create inserts an Upload row. Callers run this inside the same
// transaction as the certificate and ledger event it references
// (spec.md §3 Ownership, §4.9 step 9).
func (s *Store) Create(ctx context.Context, tx db.DBTX, u *Upload) error {
	query := `INSERT INTO uploads (` + uploadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := tx.Exec(ctx, query,
		u.ID, u.TenantID, u.ExternalID, u.AccountID, u.DeviceID, u.PVID, u.ReceivedAt,
		u.Metadata, u.DecisionInputsJSON, u.Decision, u.CertificateID, u.LedgerTenantSeq,
	)
	if err != nil {
		return fmt.Errorf("upload: inserting: %w", err)
	}
	return nil
}

// GetByExternalID looks up an Upload by its tenant-scoped external id
// (spec.md §3: "(tenant_id, external_id) unique").
func (s *Store) GetByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*Upload, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploads WHERE tenant_id = $1 AND external_id = $2`
	u, err := scanRow(s.db.QueryRow(ctx, query, tenantID, externalID))
	if err != nil {
		return nil, fmt.Errorf("upload: getting by external id: %w", err)
	}
	return &u, nil
}

// GetByCertificateID looks up the Upload a certificate was issued for —
// evidence-pack rendering's entry point into the decision inputs
// (spec.md §3, §4.10).
func (s *Store) GetByCertificateID(ctx context.Context, tenantID, certificateID uuid.UUID) (*Upload, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploads WHERE tenant_id = $1 AND certificate_id = $2`
	u, err := scanRow(s.db.QueryRow(ctx, query, tenantID, certificateID))
	if err != nil {
		return nil, fmt.Errorf("upload: getting by certificate id: %w", err)
	}
	return &u, nil
}

// MarshalJSON is a small helper so callers don't need to import
// encoding/json just to build a Metadata/DecisionInputsJSON column.
func MarshalJSON(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("upload: marshaling json column: %w", err)
	}
	return b, nil
}
