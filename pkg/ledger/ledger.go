// Package ledger implements the append-only, hash-chained audit ledger
// (C7): per-tenant sequence allocation under a row lock, canonical event
// encoding, and offline-verifiable chaining (spec.md §4.7).
package ledger

import (
	"strings"
	"time"
)

// ZeroHash is the prev_hash sentinel for every tenant's first event: 64
// zero characters, the same width as a SHA-256 hex digest.
var ZeroHash = strings.Repeat("0", 64)

// Event is a persisted ledger row.
type Event struct {
	TenantID           string    `json:"-"`
	TenantSequence     int64     `json:"-"`
	EventTimestamp     time.Time `json:"-"`
	CanonicalEventJSON []byte    `json:"-"`
	EventHash          string    `json:"-"`
	PrevHash           string    `json:"-"`
}

// eventPayload is the exact shape canonicalized and hashed — field order
// here is irrelevant since canon.Marshal sorts keys, but the field SET
// must match spec.md §4.7 step (d) precisely.
type eventPayload struct {
	TenantID       string    `json:"tenant_id"`
	TenantSequence int64     `json:"tenant_sequence"`
	EventTimestamp time.Time `json:"event_timestamp"`
	PrevHash       string    `json:"prev_hash"`
	Payload        any       `json:"payload"`
}
