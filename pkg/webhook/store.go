package webhook

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/originhq/origin/internal/db"
)

const webhookColumns = `id, tenant_id, url, secret_ciphertext, event_types, active, created_at`
const outboxColumns = `id, webhook_id, tenant_id, event_id, event_type, payload_json, attempt, next_attempt_at, delivered, dead_lettered, correlation_id, created_at`
const deliveryColumns = `id, webhook_id, outbox_event_id, attempt, http_status, success, dead_lettered, correlation_id, created_at`

// prefixColumns qualifies each column in a comma-separated list with a
// table alias, for RETURNING clauses in statements that join.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}

// Store persists Webhook, OutboxEvent, and Delivery rows.
type Store struct {
	db db.DBTX
}

func NewStore(conn db.DBTX) *Store {
	return &Store{db: conn}
}

func scanWebhook(row pgx.Row) (Webhook, error) {
	var w Webhook
	err := row.Scan(&w.ID, &w.TenantID, &w.URL, &w.SecretCiphertext, &w.EventTypes, &w.Active, &w.CreatedAt)
	return w, err
}

func scanOutboxEvent(row pgx.Row) (OutboxEvent, error) {
	var e OutboxEvent
	err := row.Scan(&e.ID, &e.WebhookID, &e.TenantID, &e.EventID, &e.EventType, &e.PayloadJSON,
		&e.Attempt, &e.NextAttemptAt, &e.Delivered, &e.DeadLettered, &e.CorrelationID, &e.CreatedAt)
	return e, err
}

func scanDelivery(row pgx.Row) (Delivery, error) {
	var d Delivery
	err := row.Scan(&d.ID, &d.WebhookID, &d.OutboxEventID, &d.Attempt, &d.HTTPStatus, &d.Success, &d.DeadLettered, &d.CorrelationID, &d.CreatedAt)
	return d, err
}

// CreateWebhook registers a new endpoint.
func (s *Store) CreateWebhook(ctx context.Context, w *Webhook) error {
	query := `INSERT INTO webhooks (` + webhookColumns + `) VALUES ($1, $2, $3, $4, $5, $6, now()) RETURNING created_at`
	err := s.db.QueryRow(ctx, query, w.ID, w.TenantID, w.URL, w.SecretCiphertext, w.EventTypes, w.Active).Scan(&w.CreatedAt)
	if err != nil {
		return fmt.Errorf("webhook: creating: %w", err)
	}
	return nil
}

// GetWebhook returns a webhook scoped to tenantID.
func (s *Store) GetWebhook(ctx context.Context, tenantID, webhookID uuid.UUID) (*Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE tenant_id = $1 AND id = $2`
	w, err := scanWebhook(s.db.QueryRow(ctx, query, tenantID, webhookID))
	if err != nil {
		return nil, fmt.Errorf("webhook: getting: %w", err)
	}
	return &w, nil
}

// ActiveWebhooksForEvent returns every active webhook registered for
// eventType within tenantID — the enqueue-time fan-out set (spec.md §4.9
// step 8).
func (s *Store) ActiveWebhooksForEvent(ctx context.Context, tx db.DBTX, tenantID uuid.UUID, eventType string) ([]Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE tenant_id = $1 AND active = true AND $2 = ANY(event_types)`
	rows, err := tx.Query(ctx, query, tenantID, eventType)
	if err != nil {
		return nil, fmt.Errorf("webhook: listing active webhooks: %w", err)
	}
	defer rows.Close()

	var out []Webhook
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("webhook: scanning webhook: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// CreateOutboxEvent inserts one pending delivery, ready to dispatch
// immediately (NextAttemptAt = now).
func (s *Store) CreateOutboxEvent(ctx context.Context, tx db.DBTX, e *OutboxEvent) error {
	query := `INSERT INTO webhook_events (` + outboxColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())`
	_, err := tx.Exec(ctx, query,
		e.ID, e.WebhookID, e.TenantID, e.EventID, e.EventType, e.PayloadJSON,
		e.Attempt, e.NextAttemptAt, e.Delivered, e.DeadLettered, e.CorrelationID,
	)
	if err != nil {
		return fmt.Errorf("webhook: creating outbox event: %w", err)
	}
	return nil
}

// ClaimDue atomically selects up to limit due outbox events and extends
// their next_attempt_at by lease, so a concurrent dispatcher polling the
// same table can't double-claim them while this one is sending HTTP
// requests. The claim and lease bump happen in one statement (a
// SELECT ... FOR UPDATE SKIP LOCKED feeding an UPDATE via CTE), so no
// explicit transaction needs to stay open across the network calls that
// follow.
func (s *Store) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]OutboxEvent, error) {
	query := `WITH claimed AS (
		SELECT id FROM webhook_events
		WHERE delivered = false AND dead_lettered = false AND next_attempt_at <= $1
		ORDER BY next_attempt_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	)
	UPDATE webhook_events e SET next_attempt_at = $1 + make_interval(secs => $3)
	FROM claimed WHERE e.id = claimed.id
	RETURNING ` + prefixColumns("e", outboxColumns)
	rows, err := s.db.Query(ctx, query, now, limit, lease.Seconds())
	if err != nil {
		return nil, fmt.Errorf("webhook: claiming due events: %w", err)
	}
	defer rows.Close()

	var out []OutboxEvent
	for rows.Next() {
		e, err := scanOutboxEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("webhook: scanning outbox event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecordAttempt appends a Delivery row and updates the outbox event's
// retry state in one call. success marks the event delivered; otherwise
// the event is rescheduled at nextAttemptAt, or dead-lettered if this was
// the final allowed attempt.
func (s *Store) RecordAttempt(ctx context.Context, e *OutboxEvent, d *Delivery, success bool, deadLettered bool, nextAttemptAt time.Time) error {
	insertQuery := `INSERT INTO webhook_deliveries (` + deliveryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`
	_, err := s.db.Exec(ctx, insertQuery, d.ID, d.WebhookID, d.OutboxEventID, d.Attempt, d.HTTPStatus, success, deadLettered, d.CorrelationID)
	if err != nil {
		return fmt.Errorf("webhook: recording delivery: %w", err)
	}

	updateQuery := `UPDATE webhook_events SET attempt = $2, delivered = $3, dead_lettered = $4, next_attempt_at = $5 WHERE id = $1`
	_, err = s.db.Exec(ctx, updateQuery, e.ID, e.Attempt, success, deadLettered, nextAttemptAt)
	if err != nil {
		return fmt.Errorf("webhook: updating outbox event: %w", err)
	}
	return nil
}

// ListDeliveries returns every attempt recorded for a webhook, most
// recent first, scoped by tenant through the webhook row itself.
func (s *Store) ListDeliveries(ctx context.Context, tenantID, webhookID uuid.UUID) ([]Delivery, error) {
	if _, err := s.GetWebhook(ctx, tenantID, webhookID); err != nil {
		return nil, err
	}
	query := `SELECT ` + deliveryColumns + ` FROM webhook_deliveries WHERE webhook_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.Query(ctx, query, webhookID)
	if err != nil {
		return nil, fmt.Errorf("webhook: listing deliveries: %w", err)
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("webhook: scanning delivery: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
