package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/originhq/origin/internal/apperror"
	"github.com/originhq/origin/internal/db"
	"github.com/originhq/origin/pkg/certificate"
	"github.com/originhq/origin/pkg/feature"
	"github.com/originhq/origin/pkg/idempotency"
	"github.com/originhq/origin/pkg/identity"
	"github.com/originhq/origin/pkg/inference"
	"github.com/originhq/origin/pkg/ledger"
	"github.com/originhq/origin/pkg/policy"
	"github.com/originhq/origin/pkg/tenant"
	"github.com/originhq/origin/pkg/upload"
)

// WebhookEnqueuer records an outbound event for asynchronous delivery
// (C11) without blocking on the network. Enqueue runs inside the
// ingest transaction, so the event row only becomes visible if the
// whole ingest commits (spec.md §4.9 step 8-9).
type WebhookEnqueuer interface {
	Enqueue(ctx context.Context, tx db.DBTX, tenantID uuid.UUID, eventType string, payload any) error
}

// Service orchestrates one ingest request end to end.
type Service struct {
	pool         *pgxpool.Pool
	certificates *certificate.Service
	certStore    *certificate.Store
	uploads      *upload.Store
	idempotency  *idempotency.Store
	scorer       inference.Scorer
	policies     *policy.Registry
	webhooks     WebhookEnqueuer
	logger       *slog.Logger
}

func NewService(
	pool *pgxpool.Pool,
	certService *certificate.Service,
	certStore *certificate.Store,
	uploadStore *upload.Store,
	idempotencyStore *idempotency.Store,
	scorer inference.Scorer,
	policies *policy.Registry,
	webhooks WebhookEnqueuer,
	logger *slog.Logger,
) *Service {
	return &Service{
		pool: pool, certificates: certService, certStore: certStore,
		uploads: uploadStore, idempotency: idempotencyStore, scorer: scorer, policies: policies,
		webhooks: webhooks, logger: logger,
	}
}

// idempotentResult is what's stored for idempotency replay: the full
// response body plus the status code it was originally served with.
type idempotentResult struct {
	Response   Response `json:"response"`
	StatusCode int      `json:"status_code"`
}

// Ingest runs the decision pipeline once and returns the response and
// the HTTP status it should be served with.
func (s *Service) Ingest(ctx context.Context, t *tenant.Tenant, idempotencyKey string, req Request, now time.Time) (*Response, int, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, 0, apperror.Internal("encoding request body").Wrap(err)
	}
	requestHash := idempotency.HashBody(bodyBytes)

	if idempotencyKey != "" {
		existing, err := s.idempotency.Get(ctx, t.ID, idempotencyKey)
		if err != nil {
			return nil, 0, apperror.Internal("checking idempotency record").Wrap(err)
		}
		if existing != nil {
			if existing.RequestHash != requestHash {
				return nil, 0, apperror.IdempotencyMismatch()
			}
			var stored idempotentResult
			if err := json.Unmarshal(existing.ResponseBody, &stored); err != nil {
				return nil, 0, apperror.Internal("decoding stored idempotent response").Wrap(err)
			}
			return &stored.Response, stored.StatusCode, nil
		}
	}

	profile, ok := s.policies.Resolve(t.PolicyProfileID, t.PolicyProfileVer)
	if !ok {
		return nil, 0, apperror.Internal(fmt.Sprintf("no registered policy profile %s@%d", t.PolicyProfileID, t.PolicyProfileVer))
	}

	var resp Response
	err = db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		identityStore := identity.NewStore(tx)
		account, err := identityStore.UpsertAccount(ctx, t.ID, req.AccountExternalID)
		if err != nil {
			return fmt.Errorf("resolving account: %w", err)
		}
		deviceExternalID := req.DeviceExternalID
		if deviceExternalID == "" {
			deviceExternalID = req.AccountExternalID
		}
		device, err := identityStore.UpsertDevice(ctx, t.ID, deviceExternalID)
		if err != nil {
			return fmt.Errorf("resolving device: %w", err)
		}
		pvid := identity.DerivePVID(t.ID, req.AccountExternalID, deviceExternalID)

		featureSvc := feature.NewService(tx)
		features, err := featureSvc.Compute(ctx, t.ID, account.ID, device.ID, pvid, account.CreatedAt, now)
		if err != nil {
			return fmt.Errorf("computing features: %w", err)
		}

		signals, err := s.scorer.Score(features, inference.Metadata(req.Metadata))
		if err != nil {
			return fmt.Errorf("scoring signals: %w", err)
		}

		decision, reasons := policy.Evaluate(profile, features, &signals)

		ledgerPayload := map[string]any{
			"upload_external_id": req.UploadExternalID,
			"decision":           string(decision),
			"model_versions": map[string]string{
				"risk":    signals.RiskModelVersion,
				"anomaly": signals.AnomalyModelVersion,
			},
		}
		event, err := ledger.Append(ctx, tx, t.ID.String(), ledgerPayload, now)
		if err != nil {
			return fmt.Errorf("appending ledger event: %w", err)
		}

		cert, err := s.certificates.Issue(ctx, t.ID, uuid.New(),
			certificate.Inputs{
				PolicyVersion:       profile.Version,
				Features:            features,
				Signals:             signals,
				RiskModelVersion:    signals.RiskModelVersion,
				AnomalyModelVersion: signals.AnomalyModelVersion,
			},
			certificate.Outputs{Decision: string(decision), Reasons: reasons},
			event.EventHash,
			now,
		)
		if err != nil {
			return fmt.Errorf("issuing certificate: %w", err)
		}
		if err := s.certStore.Create(ctx, tx, cert); err != nil {
			return fmt.Errorf("persisting certificate: %w", err)
		}

		metadataJSON, err := upload.MarshalJSON(req.Metadata)
		if err != nil {
			return err
		}
		decisionInputsJSON, err := upload.MarshalJSON(features)
		if err != nil {
			return err
		}
		u := &upload.Upload{
			ID:                 cert.UploadID,
			TenantID:           t.ID,
			ExternalID:         req.UploadExternalID,
			AccountID:          account.ID,
			DeviceID:           device.ID,
			PVID:               pvid,
			ReceivedAt:         now,
			Metadata:           metadataJSON,
			DecisionInputsJSON: decisionInputsJSON,
			Decision:           string(decision),
			CertificateID:      cert.CertificateID,
			LedgerTenantSeq:    event.TenantSequence,
		}
		if err := s.uploads.Create(ctx, tx, u); err != nil {
			return fmt.Errorf("persisting upload: %w", err)
		}

		if s.webhooks != nil {
			if err := s.webhooks.Enqueue(ctx, tx, t.ID, "decision.issued", map[string]any{
				"certificate_id": cert.CertificateID,
				"upload_id":      cert.UploadID,
				"decision":       string(decision),
			}); err != nil {
				return fmt.Errorf("enqueuing webhook event: %w", err)
			}
		}

		resp = Response{
			Decision:      string(decision),
			CertificateID: cert.CertificateID,
			LedgerHash:    event.EventHash,
			Reasons:       reasons,
		}

		if idempotencyKey != "" {
			stored, err := json.Marshal(idempotentResult{Response: resp, StatusCode: 200})
			if err != nil {
				return fmt.Errorf("encoding idempotent response: %w", err)
			}
			if err := s.idempotency.Create(ctx, tx, &idempotency.Record{
				TenantID: t.ID, Key: idempotencyKey, RequestHash: requestHash, ResponseBody: stored, StatusCode: 200,
			}); err != nil {
				return fmt.Errorf("persisting idempotency record: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		s.logger.Error("ingest transaction failed", "error", err, "tenant_id", t.ID)
		return nil, 0, apperror.Internal("ingest failed").Wrap(err)
	}

	return &resp, 200, nil
}
