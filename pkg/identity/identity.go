// Package identity resolves the stable Account, Device, and PVID entities
// an upload is attributed to (spec.md §3), so C4 can aggregate history
// against them.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Account is a tenant-scoped identity, upserted by its external id.
type Account struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	ExternalID string
	CreatedAt  time.Time
}

// Device is a tenant-scoped device, upserted by its external id.
type Device struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	ExternalID string
	CreatedAt  time.Time
}

// DerivePVID computes the provenance identifier deterministically from
// submission attributes (spec.md §4.9 step 2). Inputs are joined with a
// separator byte absent from any practical attribute value, so two
// distinct attribute tuples never collide on concatenation alone.
func DerivePVID(tenantID uuid.UUID, accountExternalID, deviceExternalID string) string {
	h := sha256.New()
	h.Write([]byte(tenantID.String()))
	h.Write([]byte{0x1f})
	h.Write([]byte(accountExternalID))
	h.Write([]byte{0x1f})
	h.Write([]byte(deviceExternalID))
	return hex.EncodeToString(h.Sum(nil))
}
