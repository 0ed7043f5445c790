// Package ingest implements the Ingest Pipeline (C9): the orchestrated,
// idempotent per-request decision flow (spec.md §4.9) —
// identity resolution → features → inference → policy → ledger →
// certificate → webhook enqueue, committed as one transaction.
package ingest

import "github.com/google/uuid"

// Request is the POST /v1/ingest body.
type Request struct {
	AccountExternalID string         `json:"account_external_id" validate:"required"`
	UploadExternalID  string         `json:"upload_external_id" validate:"required"`
	DeviceExternalID  string         `json:"device_external_id"`
	Metadata          map[string]any `json:"metadata"`
}

// Response is the POST /v1/ingest body. Two calls with identical
// (tenant_id, idempotency_key, body) must produce a byte-identical
// Response (spec.md §4.9, §8).
type Response struct {
	Decision      string    `json:"decision"`
	CertificateID uuid.UUID `json:"certificate_id"`
	LedgerHash    string    `json:"ledger_hash"`
	Reasons       []string  `json:"reasons"`
}
