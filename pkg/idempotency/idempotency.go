// Package idempotency implements the first-class idempotency table
// (spec.md §9 Design Notes): (tenant_id, idempotency_key) → stored
// response bytes, enforced by a unique index rather than an in-process
// cache.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/originhq/origin/internal/db"
)

// ErrKeyReusedWithDifferentBody signals a §4.9/§7 idempotency conflict:
// the same key was replayed with a different request body.
var ErrKeyReusedWithDifferentBody = errors.New("idempotency: key reused with a different request body")

// Record is a stored idempotent response.
type Record struct {
	TenantID     uuid.UUID
	Key          string
	RequestHash  string
	ResponseBody []byte
	StatusCode   int
}

// Store reads and writes idempotency records.
type Store struct {
	db db.DBTX
}

func NewStore(conn db.DBTX) *Store {
	return &Store{db: conn}
}

// HashBody returns the request-body digest stored alongside a response,
// used to detect key reuse with a differing body.
func HashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Get returns the stored record for (tenantID, key), or (nil, nil) if
// none exists yet.
func (s *Store) Get(ctx context.Context, tenantID uuid.UUID, key string) (*Record, error) {
	r := &Record{TenantID: tenantID, Key: key}
	query := `SELECT request_hash, response_body, status_code FROM idempotency_records WHERE tenant_id = $1 AND idempotency_key = $2`
	err := s.db.QueryRow(ctx, query, tenantID, key).Scan(&r.RequestHash, &r.ResponseBody, &r.StatusCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("idempotency: getting record: %w", err)
	}
	return r, nil
}

// Create inserts the record inside tx, alongside the rest of an ingest
// transaction (spec.md §4.9 step 9). The unique index on
// (tenant_id, idempotency_key) is the single source of truth for
// single-writer semantics; a concurrent duplicate insert fails here
// rather than racing an in-process cache.
func (s *Store) Create(ctx context.Context, tx db.DBTX, r *Record) error {
	query := `INSERT INTO idempotency_records (tenant_id, idempotency_key, request_hash, response_body, status_code, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`
	_, err := tx.Exec(ctx, query, r.TenantID, r.Key, r.RequestHash, r.ResponseBody, r.StatusCode)
	if err != nil {
		return fmt.Errorf("idempotency: creating record: %w", err)
	}
	return nil
}
