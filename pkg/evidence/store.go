package evidence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/originhq/origin/internal/db"
)

const packColumns = `certificate_id, tenant_id, status, formats_requested, storage_keys, artifact_hashes, artifact_sizes, task_id, task_status, pipeline_event, error_code, created_at, updated_at`

// Store persists EvidencePack rows.
type Store struct {
	db db.DBTX
}

func NewStore(conn db.DBTX) *Store {
	return &Store{db: conn}
}

func scanRow(row pgx.Row) (Pack, error) {
	var p Pack
	var formats []string
	var storageKeys, artifactHashes, artifactSizes []byte
	var taskStatus *string
	err := row.Scan(&p.CertificateID, &p.TenantID, &p.Status, &formats, &storageKeys, &artifactHashes, &artifactSizes,
		&p.TaskID, &taskStatus, &p.PipelineEvent, &p.ErrorCode, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Pack{}, err
	}

	p.FormatsRequested = make([]Format, len(formats))
	for i, f := range formats {
		p.FormatsRequested[i] = Format(f)
	}
	if taskStatus != nil {
		ts := TaskStatus(*taskStatus)
		p.TaskStatus = &ts
	}
	if err := unmarshalMap(storageKeys, &p.StorageKeys); err != nil {
		return Pack{}, fmt.Errorf("evidence: decoding storage_keys: %w", err)
	}
	if err := unmarshalMap(artifactHashes, &p.ArtifactHashes); err != nil {
		return Pack{}, fmt.Errorf("evidence: decoding artifact_hashes: %w", err)
	}
	if err := unmarshalSizeMap(artifactSizes, &p.ArtifactSizes); err != nil {
		return Pack{}, fmt.Errorf("evidence: decoding artifact_sizes: %w", err)
	}
	return p, nil
}

func unmarshalMap(raw []byte, dst *map[Format]string) error {
	*dst = make(map[Format]string)
	if len(raw) == 0 {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	for k, v := range m {
		(*dst)[Format(k)] = v
	}
	return nil
}

func unmarshalSizeMap(raw []byte, dst *map[Format]int64) error {
	*dst = make(map[Format]int64)
	if len(raw) == 0 {
		return nil
	}
	var m map[string]int64
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	for k, v := range m {
		(*dst)[Format(k)] = v
	}
	return nil
}

// Create inserts a new pending Pack row and reports whether it was the
// one that did so. If one already exists for this certificate, it loads
// the existing row into p instead of erroring — enqueue is idempotent on
// (tenant_id, certificate_id) (spec.md §8), and callers use the returned
// flag to decide whether this call is the one that should hand the task
// to the broker.
func (s *Store) Create(ctx context.Context, p *Pack) (created bool, err error) {
	formats := make([]string, len(p.FormatsRequested))
	for i, f := range p.FormatsRequested {
		formats[i] = string(f)
	}
	query := `INSERT INTO evidence_packs
		(certificate_id, tenant_id, status, formats_requested, storage_keys, artifact_hashes, artifact_sizes, task_id, task_status, pipeline_event, created_at, updated_at)
		VALUES ($1, $2, $3, $4, '{}', '{}', '{}', $5, $6, $7, now(), now())
		ON CONFLICT (certificate_id) DO NOTHING
		RETURNING created_at, updated_at`
	var taskStatus *string
	if p.TaskStatus != nil {
		v := string(*p.TaskStatus)
		taskStatus = &v
	}
	scanErr := s.db.QueryRow(ctx, query, p.CertificateID, p.TenantID, p.Status, formats, p.TaskID, taskStatus, p.PipelineEvent).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if scanErr == nil {
		return true, nil
	}
	if !errors.Is(scanErr, pgx.ErrNoRows) {
		return false, fmt.Errorf("evidence: creating pack: %w", scanErr)
	}

	existing, getErr := s.GetByCertificateID(ctx, p.TenantID, p.CertificateID)
	if getErr != nil {
		return false, fmt.Errorf("evidence: loading existing pack after conflict: %w", getErr)
	}
	*p = *existing
	return false, nil
}

// GetByCertificateID loads the pack for one certificate, scoped to tenant.
func (s *Store) GetByCertificateID(ctx context.Context, tenantID, certificateID uuid.UUID) (*Pack, error) {
	query := `SELECT ` + packColumns + ` FROM evidence_packs WHERE tenant_id = $1 AND certificate_id = $2`
	p, err := scanRow(s.db.QueryRow(ctx, query, tenantID, certificateID))
	if err != nil {
		return nil, fmt.Errorf("evidence: getting pack: %w", err)
	}
	return &p, nil
}

// MarkReady transitions a pending pack to ready, recording every
// requested format's storage key, hash, and size in one update — the
// only place Status becomes StatusReady, so the ready<=>complete
// invariant (spec.md §3) can never be violated by a partial write.
func (s *Store) MarkReady(ctx context.Context, certificateID uuid.UUID, storageKeys map[Format]string, hashes map[Format]string, sizes map[Format]int64) error {
	skJSON, _ := json.Marshal(storageKeys)
	ahJSON, _ := json.Marshal(hashes)
	asJSON, _ := json.Marshal(sizes)

	tag, err := s.db.Exec(ctx, `UPDATE evidence_packs SET status = $2, storage_keys = $3, artifact_hashes = $4, artifact_sizes = $5,
		task_status = $6, pipeline_event = $7, updated_at = now()
		WHERE certificate_id = $1 AND status = 'pending'`,
		certificateID, StatusReady, skJSON, ahJSON, asJSON, TaskSuccess, EventUpdatedFromTaskResult)
	if err != nil {
		return fmt.Errorf("evidence: marking ready: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("evidence: pack %s not in pending state", certificateID)
	}
	return nil
}

// MarkFailed transitions a pending pack to failed with a deterministic
// error code — never used for transient broker errors, which leave the
// row in pending (spec.md §4.10, §7).
func (s *Store) MarkFailed(ctx context.Context, certificateID uuid.UUID, errorCode string) error {
	_, err := s.db.Exec(ctx, `UPDATE evidence_packs SET status = $2, error_code = $3, task_status = $4, pipeline_event = $5, updated_at = now()
		WHERE certificate_id = $1 AND status = 'pending'`,
		certificateID, StatusFailed, errorCode, TaskFailure, EventUpdatedFromTaskResult)
	if err != nil {
		return fmt.Errorf("evidence: marking failed: %w", err)
	}
	return nil
}

// RequeueStuck appends the "_retry_{unix_ts}" suffix to task_id for every
// pending pack older than olderThan, so the background sweep can pick it
// back up (spec.md §4.10).
func (s *Store) RequeueStuck(ctx context.Context, olderThan time.Time, now time.Time) ([]Pack, error) {
	rows, err := s.db.Query(ctx, `SELECT `+packColumns+` FROM evidence_packs WHERE status = 'pending' AND updated_at < $1`, olderThan)
	if err != nil {
		return nil, fmt.Errorf("evidence: querying stuck packs: %w", err)
	}
	defer rows.Close()

	var stuck []Pack
	for rows.Next() {
		p, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("evidence: scanning stuck pack: %w", err)
		}
		stuck = append(stuck, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range stuck {
		newTaskID := RetriedTaskID(stuck[i].TaskID, now.Unix())
		_, err := s.db.Exec(ctx, `UPDATE evidence_packs SET task_id = $2, pipeline_event = $3, updated_at = now() WHERE certificate_id = $1`,
			stuck[i].CertificateID, newTaskID, EventStuckRequeued)
		if err != nil {
			return nil, fmt.Errorf("evidence: requeuing %s: %w", stuck[i].CertificateID, err)
		}
		stuck[i].TaskID = newTaskID
	}
	return stuck, nil
}
