package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/originhq/origin/internal/canon"
)

func TestEventHashReproducibleFromCanonicalBytes(t *testing.T) {
	body := eventPayload{
		TenantID:       "t1",
		TenantSequence: 1,
		EventTimestamp: time.Unix(1700000000, 0).UTC(),
		PrevHash:       ZeroHash,
		Payload:        map[string]any{"decision": "ALLOW"},
	}

	canonicalJSON, err := canon.Marshal(body)
	if err != nil {
		t.Fatalf("canon.Marshal: %v", err)
	}

	sum1 := sha256.Sum256(canonicalJSON)
	sum2 := sha256.Sum256(canonicalJSON)
	if hex.EncodeToString(sum1[:]) != hex.EncodeToString(sum2[:]) {
		t.Fatalf("expected recomputing the hash from stored bytes to be stable")
	}
}

func TestZeroHashWidth(t *testing.T) {
	if len(ZeroHash) != sha256.Size*2 {
		t.Fatalf("ZeroHash length = %d, want %d (hex SHA-256 width)", len(ZeroHash), sha256.Size*2)
	}
}
