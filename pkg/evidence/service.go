package evidence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/originhq/origin/internal/apperror"
	"github.com/originhq/origin/internal/blobstore"
	"github.com/originhq/origin/pkg/certificate"
	"github.com/originhq/origin/pkg/upload"
)

// errorCodeBrokerUnavailable is the literal error_code value ORIGIN
// returns when the task broker cannot be reached (spec.md §4.10). It is
// never written to a Pack row — broker outages are transient and leave
// the pack pending for a later retry.
const errorCodeBrokerUnavailable = "BROKER_UNAVAILABLE"

const brokerRetryAfter = 30 * time.Second

// Service orchestrates evidence-pack enqueue, poll, and render.
type Service struct {
	packs        *Store
	broker       Broker
	blobs        blobstore.Store
	certificates *certificate.Store
	uploads      *upload.Store
	signedURLTTL time.Duration
	logger       *slog.Logger
}

func NewService(packs *Store, broker Broker, blobs blobstore.Store, certificates *certificate.Store, uploads *upload.Store, signedURLTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		packs: packs, broker: broker, blobs: blobs,
		certificates: certificates, uploads: uploads,
		signedURLTTL: signedURLTTL, logger: logger,
	}
}

// Enqueue validates the request, creates (or reuses) the pending pack
// row, and hands a task to the broker. A broker failure here is
// transient — the pack stays pending and the caller gets a 503 with
// error_code "BROKER_UNAVAILABLE" rather than a failed pack (spec.md
// §4.10).
func (s *Service) Enqueue(ctx context.Context, tenantID uuid.UUID, req EnqueueRequest, pollURLPrefix string, now time.Time) (*EnqueueResponse, int, error) {
	formats, err := ParseFormats(req.Formats)
	if err != nil {
		return nil, 0, apperror.Validation(err.Error())
	}

	if _, err := s.certificates.GetByID(ctx, tenantID, req.CertificateID); err != nil {
		return nil, 0, apperror.NotFound("certificate not found")
	}

	taskID := TaskID(tenantID, req.CertificateID, formats)
	pending := TaskPending
	pack := &Pack{
		CertificateID:    req.CertificateID,
		TenantID:         tenantID,
		Status:           StatusPending,
		FormatsRequested: formats,
		TaskID:           taskID,
		TaskStatus:       &pending,
		PipelineEvent:    EventEnqueued,
	}

	created, err := s.packs.Create(ctx, pack)
	if err != nil {
		return nil, 0, apperror.Internal("creating evidence pack").Wrap(err)
	}

	if created {
		task := Task{TaskID: taskID, TenantID: tenantID.String(), CertificateID: req.CertificateID.String(), Formats: formats}
		if err := s.broker.Enqueue(ctx, task); err != nil {
			if errors.Is(err, ErrBrokerUnavailable) {
				unavailable := apperror.Unavailable("evidence task broker unavailable").Wrap(err)
				unavailable.Code = apperror.Code(errorCodeBrokerUnavailable)
				retryAfter := brokerRetryAfter
				unavailable.RetryAfter = &retryAfter
				return nil, 0, unavailable
			}
			return nil, 0, apperror.Internal("enqueuing evidence task").Wrap(err)
		}
	}

	resp := &EnqueueResponse{
		Status:            string(pack.Status),
		TaskID:            pack.TaskID,
		TaskStatus:        pack.TaskStatus,
		TaskState:         pack.TaskStatus,
		PipelineEvent:     pack.PipelineEvent,
		PollURL:           fmt.Sprintf("%s/%s", pollURLPrefix, pack.CertificateID),
		RetryAfterSeconds: 2,
	}
	return resp, 202, nil
}

// Poll returns the current pack state, presigning download URLs for
// every ready artifact.
func (s *Service) Poll(ctx context.Context, tenantID, certificateID uuid.UUID) (*PollResponse, int, error) {
	pack, err := s.packs.GetByCertificateID(ctx, tenantID, certificateID)
	if err != nil {
		return nil, 0, apperror.NotFound("evidence pack not found")
	}

	resp := &PollResponse{
		Status:        string(pack.Status),
		TaskID:        pack.TaskID,
		TaskStatus:    pack.TaskStatus,
		TaskState:     pack.TaskStatus,
		PipelineEvent: pack.PipelineEvent,
		ErrorCode:     pack.ErrorCode,
	}

	status := 200
	switch pack.Status {
	case StatusPending:
		status = 202
	case StatusReady:
		urls := make(map[Format]string, len(pack.StorageKeys))
		for format, key := range pack.StorageKeys {
			url, err := s.blobs.Presign(ctx, key, s.signedURLTTL)
			if err != nil {
				return nil, 0, apperror.Internal("presigning evidence artifact").Wrap(err)
			}
			urls[format] = url
		}
		resp.SignedURLs = urls
	case StatusFailed:
		status = 200
	}
	return resp, status, nil
}

// Execute renders every requested format for one task and persists the
// result, transitioning the pack to ready or failed. It is called from
// the worker loop (worker.go), never from the HTTP request path.
func (s *Service) Execute(ctx context.Context, t Task) error {
	tenantID, err := uuid.Parse(t.TenantID)
	if err != nil {
		s.logger.Error("evidence task has unparseable tenant id", "task_id", t.TaskID, "error", err)
		return fmt.Errorf("evidence: unparseable tenant id in task %s: %w", t.TaskID, err)
	}
	certificateID, err := uuid.Parse(t.CertificateID)
	if err != nil {
		s.logger.Error("evidence task has unparseable certificate id", "task_id", t.TaskID, "error", err)
		return fmt.Errorf("evidence: unparseable certificate id in task %s: %w", t.TaskID, err)
	}

	cert, err := s.certificates.GetByID(ctx, tenantID, certificateID)
	if err != nil {
		return s.fail(ctx, certificateID, t, "certificate not found")
	}
	u, err := s.uploads.GetByCertificateID(ctx, tenantID, certificateID)
	if err != nil {
		return s.fail(ctx, certificateID, t, "upload not found for certificate")
	}

	now := time.Now()
	storageKeys := make(map[Format]string, len(t.Formats))
	hashes := make(map[Format]string, len(t.Formats))
	sizes := make(map[Format]int64, len(t.Formats))

	for _, format := range t.Formats {
		artifact, contentType, err := render(format, cert, u, now)
		if err != nil {
			return s.fail(ctx, certificateID, t, fmt.Sprintf("rendering %s: %v", format, err))
		}
		key := fmt.Sprintf("evidence/%s/%s/%s.%s", tenantID, certificateID, certificateID, format)
		if err := s.blobs.Put(ctx, key, artifact, contentType); err != nil {
			return s.fail(ctx, certificateID, t, fmt.Sprintf("storing %s artifact: %v", format, err))
		}
		storageKeys[format] = key
		hashes[format] = sha256Hex(artifact)
		sizes[format] = int64(len(artifact))
	}

	if err := s.packs.MarkReady(ctx, certificateID, storageKeys, hashes, sizes); err != nil {
		return fmt.Errorf("evidence: marking pack ready: %w", err)
	}
	s.logger.Info("evidence pack ready", "certificate_id", certificateID, "task_id", t.TaskID)
	return nil
}

func (s *Service) fail(ctx context.Context, certificateID uuid.UUID, t Task, reason string) error {
	s.logger.Error("evidence pack render failed", "task_id", t.TaskID, "reason", reason)
	if err := s.packs.MarkFailed(ctx, certificateID, reason); err != nil {
		return fmt.Errorf("evidence: marking pack failed: %w", err)
	}
	return nil
}
