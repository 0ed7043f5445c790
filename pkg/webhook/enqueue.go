package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/originhq/origin/internal/db"
	"github.com/originhq/origin/internal/telemetry"
)

// Enqueuer implements ingest.WebhookEnqueuer: it fans an event out to
// every active webhook registered for that event type, inserting one
// outbox row per target inside the caller's transaction.
type Enqueuer struct {
	store *Store
}

func NewEnqueuer(store *Store) *Enqueuer {
	return &Enqueuer{store: store}
}

// Enqueue marshals payload exactly once and reuses those bytes for every
// fanned-out outbox row — the payload a receiver verifies is the same
// byte sequence regardless of which webhook it targets.
func (e *Enqueuer) Enqueue(ctx context.Context, tx db.DBTX, tenantID uuid.UUID, eventType string, payload any) error {
	targets, err := e.store.ActiveWebhooksForEvent(ctx, tx, tenantID, eventType)
	if err != nil {
		return fmt.Errorf("webhook: resolving targets: %w", err)
	}
	if len(targets) == 0 {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: encoding payload: %w", err)
	}

	correlationID, _ := telemetry.CorrelationIDFromContext(ctx)
	now := time.Now()
	for _, target := range targets {
		event := &OutboxEvent{
			ID:            uuid.New(),
			WebhookID:     target.ID,
			TenantID:      tenantID,
			EventID:       uuid.New(),
			EventType:     eventType,
			PayloadJSON:   body,
			Attempt:       0,
			NextAttemptAt: now,
			CorrelationID: correlationID,
		}
		if err := e.store.CreateOutboxEvent(ctx, tx, event); err != nil {
			return fmt.Errorf("webhook: creating outbox event for webhook %s: %w", target.ID, err)
		}
	}
	return nil
}
