// Package upload persists the Upload entity (spec.md §3): the record an
// ingest request produces, immutable after creation except for
// terminal-state fields.
package upload

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Upload is the persisted record of one ingest request's outcome.
type Upload struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	ExternalID         string
	AccountID          uuid.UUID
	DeviceID           uuid.UUID
	PVID               string
	ReceivedAt         time.Time
	Metadata           json.RawMessage
	DecisionInputsJSON json.RawMessage
	Decision           string
	CertificateID      uuid.UUID
	LedgerTenantSeq    int64
}
