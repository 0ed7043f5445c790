package certificate

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/originhq/origin/internal/db"
)

const certificateColumns = `certificate_id, tenant_id, upload_id, policy_version, inputs_hash, outputs_hash, ledger_hash, key_id, alg, signature, signature_encoding, issued_at`

// Store persists Certificate rows.
type Store struct {
	db db.DBTX
}

func NewStore(conn db.DBTX) *Store {
	return &Store{db: conn}
}

func scanRow(row pgx.Row) (Certificate, error) {
	var c Certificate
	err := row.Scan(&c.CertificateID, &c.TenantID, &c.UploadID, &c.PolicyVersion, &c.InputsHash, &c.OutputsHash,
		&c.LedgerHash, &c.KeyID, &c.Alg, &c.Signature, &c.SignatureEncoding, &c.IssuedAt)
	return c, err
}

// Create inserts cert. Callers run this inside the same transaction as
// the rest of an ingest (spec.md §4.9 step 9).
func (s *Store) Create(ctx context.Context, tx db.DBTX, cert *Certificate) error {
	query := `INSERT INTO certificates (` + certificateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := tx.Exec(ctx, query,
		cert.CertificateID, cert.TenantID, cert.UploadID, cert.PolicyVersion, cert.InputsHash, cert.OutputsHash,
		cert.LedgerHash, cert.KeyID, cert.Alg, cert.Signature, cert.SignatureEncoding, cert.IssuedAt,
	)
	if err != nil {
		return fmt.Errorf("certificate: inserting: %w", err)
	}
	return nil
}

// GetByID returns a certificate scoped to tenantID.
func (s *Store) GetByID(ctx context.Context, tenantID, certificateID uuid.UUID) (*Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE tenant_id = $1 AND certificate_id = $2`
	c, err := scanRow(s.db.QueryRow(ctx, query, tenantID, certificateID))
	if err != nil {
		return nil, fmt.Errorf("certificate: getting by id: %w", err)
	}
	return &c, nil
}
