// Package webhook implements the Webhook Dispatcher (C11): a durable,
// at-least-once outbound delivery pipeline with raw-body HMAC signing,
// bounded exponential backoff, and dead-lettering (spec.md §4.11).
package webhook

import (
	"time"

	"github.com/google/uuid"
)

// EventDecisionIssued is emitted by the ingest pipeline once a decision
// certificate has been persisted (spec.md §4.9 step 8).
const EventDecisionIssued = "decision.issued"

// EventTest is the synthetic event sent by the POST /v1/webhooks/test
// endpoint so a tenant can verify their endpoint and secret out of band.
const EventTest = "webhook.test"

// BackoffSchedule is the normative retry schedule (spec.md §4.11): each
// index is the wait before the attempt at that index + 2 (attempt 1 has
// already happened by the time the first backoff applies).
var BackoffSchedule = []time.Duration{5 * time.Second, 30 * time.Second, 2 * time.Minute, 10 * time.Minute, 30 * time.Minute}

// MaxAttempts caps delivery attempts before a delivery is dead-lettered.
const MaxAttempts = len(BackoffSchedule)

// ReplayWindow is the maximum age a signed timestamp may have before a
// receiver should reject it (spec.md §4.11).
const ReplayWindow = 300 * time.Second

// Webhook is a tenant-registered delivery endpoint.
type Webhook struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	URL              string
	SecretCiphertext []byte
	EventTypes       []string
	Active           bool
	CreatedAt        time.Time
}

// Matches reports whether this webhook is registered for eventType.
func (w *Webhook) Matches(eventType string) bool {
	for _, et := range w.EventTypes {
		if et == eventType {
			return true
		}
	}
	return false
}

// OutboxEvent is one pending delivery: a single (webhook, event) pair
// queued inside the producing transaction, so it only becomes visible if
// that transaction commits (spec.md §4.9 step 8-9).
//
// PayloadJSON is the exact byte sequence that will be signed and sent —
// it is never re-serialized between enqueue and dispatch (spec.md §4.11).
type OutboxEvent struct {
	ID            uuid.UUID
	WebhookID     uuid.UUID
	TenantID      uuid.UUID
	EventID       uuid.UUID
	EventType     string
	PayloadJSON   []byte
	Attempt       int
	NextAttemptAt time.Time
	Delivered     bool
	DeadLettered  bool
	CorrelationID string
	CreatedAt     time.Time
}

// Delivery is one persisted attempt record (spec.md §4.11: "Each attempt
// appends a WebhookDelivery row").
type Delivery struct {
	ID            uuid.UUID
	WebhookID     uuid.UUID
	OutboxEventID uuid.UUID
	Attempt       int
	HTTPStatus    int
	Success       bool
	DeadLettered  bool
	CorrelationID string
	CreatedAt     time.Time
}

// CreateRequest is the POST /v1/webhooks body.
type CreateRequest struct {
	URL        string   `json:"url" validate:"required,url"`
	EventTypes []string `json:"event_types" validate:"required,min=1"`
}

// CreateResponse returns the plaintext secret exactly once.
type CreateResponse struct {
	ID         uuid.UUID `json:"id"`
	URL        string    `json:"url"`
	EventTypes []string  `json:"event_types"`
	Secret     string    `json:"secret"`
	CreatedAt  time.Time `json:"created_at"`
}

// TestRequest is the POST /v1/webhooks/test body.
type TestRequest struct {
	WebhookID uuid.UUID `json:"webhook_id" validate:"required"`
}

// TestResponse reports the synchronous outcome of a test delivery.
type TestResponse struct {
	Success    bool `json:"success"`
	HTTPStatus int  `json:"http_status,omitempty"`
}

// DeliveryResponse is the JSON projection of a Delivery row.
type DeliveryResponse struct {
	ID            uuid.UUID `json:"id"`
	Attempt       int       `json:"attempt"`
	HTTPStatus    int       `json:"http_status"`
	Success       bool      `json:"success"`
	DeadLettered  bool      `json:"dead_lettered"`
	CorrelationID string    `json:"correlation_id"`
	CreatedAt     time.Time `json:"created_at"`
}
