package feature

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/originhq/origin/internal/db"
)

// Service computes Features from persistent upload history.
type Service struct {
	db db.DBTX
}

func NewService(conn db.DBTX) *Service {
	return &Service{db: conn}
}

// Compute builds the feature vector for one upload. accountCreatedAt is
// passed in by the caller (already resolved via identity.Store) rather
// than re-queried here, so this stays a pure aggregation step.
func (s *Service) Compute(ctx context.Context, tenantID, accountID, deviceID uuid.UUID, pvid string, accountCreatedAt time.Time, now time.Time) (*Features, error) {
	f := &Features{ComputedAt: now}

	if !accountCreatedAt.IsZero() {
		f.AccountAgeDays = int(now.Sub(accountCreatedAt).Hours() / 24)
	}

	since24h := now.Add(-24 * time.Hour)

	accountQuery := `SELECT
		count(*) FILTER (WHERE received_at >= $3) AS velocity_24h,
		count(*) FILTER (WHERE decision = 'QUARANTINE') AS quarantine_count,
		count(*) FILTER (WHERE decision = 'REJECT') AS reject_count
		FROM uploads WHERE tenant_id = $1 AND account_id = $2`
	if err := s.db.QueryRow(ctx, accountQuery, tenantID, accountID, since24h).Scan(
		&f.UploadVelocity24h, &f.PriorQuarantineCount, &f.PriorRejectCount,
	); err != nil {
		return nil, fmt.Errorf("feature: aggregating account history: %w", err)
	}

	deviceQuery := `SELECT count(*) FILTER (WHERE received_at >= $3)
		FROM uploads WHERE tenant_id = $1 AND device_id = $2`
	if err := s.db.QueryRow(ctx, deviceQuery, tenantID, deviceID, since24h).Scan(&f.DeviceVelocity24h); err != nil {
		return nil, fmt.Errorf("feature: aggregating device history: %w", err)
	}

	pvidQuery := `SELECT
		count(*) FILTER (WHERE decision = 'QUARANTINE') AS quarantine_count,
		count(*) FILTER (WHERE decision = 'REJECT') AS reject_count
		FROM uploads WHERE tenant_id = $1 AND pvid = $2`
	if err := s.db.QueryRow(ctx, pvidQuery, tenantID, pvid).Scan(&f.PVIDQuarantineCount, &f.PVIDRejectCount); err != nil {
		return nil, fmt.Errorf("feature: aggregating PVID history: %w", err)
	}

	return f, nil
}
