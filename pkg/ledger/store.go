package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/originhq/origin/internal/canon"
	"github.com/originhq/origin/internal/db"
)

// Store appends and verifies ledger events.
type Store struct {
	db db.DBTX
}

func NewStore(conn db.DBTX) *Store {
	return &Store{db: conn}
}

// Append allocates the next tenant_sequence under a row lock on the
// tenant's sequence row, builds the canonical event JSON, chains it to
// the previous event's hash, and inserts it — all within tx, so the
// caller composes this with the rest of an ingest transaction (spec.md
// §4.7, §4.9 step 9).
func Append(ctx context.Context, tx pgx.Tx, tenantID string, payload any, now time.Time) (*Event, error) {
	var nextSeq int64
	var prevHash string

	err := tx.QueryRow(ctx, `SELECT next_sequence FROM tenant_sequences WHERE tenant_id = $1 FOR UPDATE`, tenantID).Scan(&nextSeq)
	if err != nil {
		if err == pgx.ErrNoRows {
			nextSeq = 1
			prevHash = ZeroHash
			if _, insErr := tx.Exec(ctx, `INSERT INTO tenant_sequences (tenant_id, next_sequence) VALUES ($1, 2)`, tenantID); insErr != nil {
				return nil, fmt.Errorf("ledger: initializing tenant sequence: %w", insErr)
			}
		} else {
			return nil, fmt.Errorf("ledger: locking tenant sequence: %w", err)
		}
	} else {
		if err := tx.QueryRow(ctx, `SELECT event_hash FROM ledger_events WHERE tenant_id = $1 AND tenant_sequence = $2`, tenantID, nextSeq-1).Scan(&prevHash); err != nil {
			return nil, fmt.Errorf("ledger: reading previous event hash: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE tenant_sequences SET next_sequence = next_sequence + 1 WHERE tenant_id = $1`, tenantID); err != nil {
			return nil, fmt.Errorf("ledger: advancing tenant sequence: %w", err)
		}
	}

	body := eventPayload{
		TenantID:       tenantID,
		TenantSequence: nextSeq,
		EventTimestamp: now,
		PrevHash:       prevHash,
		Payload:        payload,
	}

	canonicalJSON, err := canon.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ledger: canonicalizing event: %w", err)
	}
	sum := sha256.Sum256(canonicalJSON)
	eventHash := hex.EncodeToString(sum[:])

	_, err = tx.Exec(ctx, `INSERT INTO ledger_events (tenant_id, tenant_sequence, event_timestamp, canonical_event_json, event_hash, prev_hash)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		tenantID, nextSeq, body.EventTimestamp, canonicalJSON, eventHash, prevHash,
	)
	if err != nil {
		return nil, fmt.Errorf("ledger: inserting event: %w", err)
	}

	return &Event{
		TenantID:           tenantID,
		TenantSequence:     nextSeq,
		EventTimestamp:     body.EventTimestamp,
		CanonicalEventJSON: canonicalJSON,
		EventHash:          eventHash,
		PrevHash:           prevHash,
	}, nil
}

// VerifyChain walks tenantID's events in sequence order, checking gapless
// monotonicity, hash self-consistency, and chaining (spec.md §4.7).
func (s *Store) VerifyChain(ctx context.Context, tenantID string) (bool, string, error) {
	rows, err := s.db.Query(ctx, `SELECT tenant_sequence, canonical_event_json, event_hash, prev_hash
		FROM ledger_events WHERE tenant_id = $1 ORDER BY tenant_sequence ASC`, tenantID)
	if err != nil {
		return false, "", fmt.Errorf("ledger: querying events: %w", err)
	}
	defer rows.Close()

	expectedSeq := int64(1)
	expectedPrevHash := ZeroHash

	for rows.Next() {
		var seq int64
		var canonicalJSON []byte
		var eventHash, prevHash string
		if err := rows.Scan(&seq, &canonicalJSON, &eventHash, &prevHash); err != nil {
			return false, "", fmt.Errorf("ledger: scanning event: %w", err)
		}

		if seq != expectedSeq {
			return false, fmt.Sprintf("sequence_gap at sequence=%d", seq), nil
		}
		sum := sha256.Sum256(canonicalJSON)
		if hex.EncodeToString(sum[:]) != eventHash {
			return false, fmt.Sprintf("hash_mismatch at sequence=%d", seq), nil
		}
		if prevHash != expectedPrevHash {
			return false, fmt.Sprintf("prev_hash_mismatch at sequence=%d", seq), nil
		}

		expectedSeq++
		expectedPrevHash = eventHash
	}
	if err := rows.Err(); err != nil {
		return false, "", fmt.Errorf("ledger: iterating events: %w", err)
	}

	return true, "", nil
}
