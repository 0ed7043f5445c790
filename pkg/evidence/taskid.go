package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// taskIDPrefix is prepended to every deterministic task id (spec.md §4.10).
const taskIDPrefix = "evidence_pack_"

// ParseFormats splits and normalizes a comma-separated formats string into
// a sorted, deduplicated slice — sorting here is what makes TaskID
// order-independent of request phrasing ("pdf,json" and "json,pdf" must
// collide on the same task).
func ParseFormats(raw string) ([]Format, error) {
	parts := strings.Split(raw, ",")
	seen := make(map[Format]bool, len(parts))
	out := make([]Format, 0, len(parts))
	for _, p := range parts {
		f := Format(strings.TrimSpace(strings.ToLower(p)))
		if f == "" {
			continue
		}
		if !ValidFormat(f) {
			return nil, fmt.Errorf("evidence: unknown format %q", f)
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("evidence: no formats requested")
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// TaskID computes the deterministic task identity for one
// (tenant, certificate, formats) tuple: two enqueue calls for the same
// tuple must produce the same id (spec.md §8 round-trip law).
func TaskID(tenantID, certificateID uuid.UUID, formats []Format) string {
	strFormats := make([]string, len(formats))
	for i, f := range formats {
		strFormats[i] = string(f)
	}
	preimage := tenantID.String() + "|" + certificateID.String() + "|" + strings.Join(strFormats, ",")
	sum := sha256.Sum256([]byte(preimage))
	return taskIDPrefix + hex.EncodeToString(sum[:])[:32]
}

// RetriedTaskID appends the "_retry_{unix_ts}" suffix a stuck-pending
// requeue assigns, so the sweep can distinguish a fresh attempt from the
// original without losing the deterministic base id.
func RetriedTaskID(baseTaskID string, unixTS int64) string {
	return fmt.Sprintf("%s_retry_%d", baseTaskID, unixTS)
}
