// Package evidence implements the Evidence Pipeline (C10): an idempotent,
// asynchronous artifact generator with deterministic task identity and a
// monotone pending -> {ready, failed} state machine (spec.md §4.10).
package evidence

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the EvidencePack's own state machine. It is never conflated
// with TaskStatus or PipelineEvent (spec.md §9 Design Notes).
type Status string

const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// TaskStatus mirrors the closed set of states the task-execution framework
// reports. It is a separate tagged variant from PipelineEvent and from
// Status — spec.md §9 is explicit that these three must never be merged.
type TaskStatus string

const (
	TaskPending TaskStatus = "PENDING"
	TaskStarted TaskStatus = "STARTED"
	TaskRetry   TaskStatus = "RETRY"
	TaskSuccess TaskStatus = "SUCCESS"
	TaskFailure TaskStatus = "FAILURE"
)

// PipelineEvent is the application-level marker of what the request
// handler observed while servicing an evidence-pack request — distinct
// from the worker-framework's TaskStatus (spec.md §9).
type PipelineEvent string

const (
	EventEnqueued              PipelineEvent = "ENQUEUED"
	EventPolling               PipelineEvent = "POLLING"
	EventStuckRequeued         PipelineEvent = "STUCK_REQUEUED"
	EventUpdatedFromTaskResult PipelineEvent = "UPDATED_FROM_TASK_RESULT"
)

// Format is one of the artifact encodings an evidence pack may be
// requested in.
type Format string

const (
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
)

var validFormats = map[Format]bool{FormatJSON: true, FormatPDF: true, FormatHTML: true}

// ValidFormat reports whether f is one of the formats ORIGIN knows how to
// render.
func ValidFormat(f Format) bool { return validFormats[f] }

// Pack is the persisted EvidencePack row (spec.md §3).
//
// Invariant: Status == StatusReady iff every format in FormatsRequested
// has a non-empty entry in StorageKeys and ArtifactHashes.
type Pack struct {
	CertificateID   uuid.UUID         `json:"certificate_id"`
	TenantID        uuid.UUID         `json:"-"`
	Status          Status            `json:"status"`
	FormatsRequested []Format         `json:"formats_requested"`
	StorageKeys     map[Format]string `json:"storage_keys,omitempty"`
	ArtifactHashes  map[Format]string `json:"artifact_hashes,omitempty"`
	ArtifactSizes   map[Format]int64  `json:"artifact_sizes,omitempty"`
	TaskID          string            `json:"task_id"`
	TaskStatus      *TaskStatus       `json:"task_status"`
	PipelineEvent   PipelineEvent     `json:"pipeline_event"`
	ErrorCode       string            `json:"error_code,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Ready reports whether every requested format has a recorded artifact —
// the invariant that must hold whenever Status == StatusReady.
func (p *Pack) Ready() bool {
	for _, f := range p.FormatsRequested {
		if p.StorageKeys[f] == "" || p.ArtifactHashes[f] == "" {
			return false
		}
	}
	return true
}

// EnqueueRequest is the POST /v1/evidence-packs body.
type EnqueueRequest struct {
	CertificateID uuid.UUID `json:"certificate_id" validate:"required"`
	Formats       string    `json:"formats" validate:"required"` // comma-separated, e.g. "json,pdf"
}

// UnmarshalJSON accepts "format" as an alias of "formats" — both the
// plural field name and the singular phrasing from the end-to-end
// scenarios (spec.md §9) resolve to the same comma-separated string.
func (r *EnqueueRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		CertificateID uuid.UUID `json:"certificate_id"`
		Formats       string    `json:"formats"`
		Format        string    `json:"format"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.CertificateID = raw.CertificateID
	r.Formats = raw.Formats
	if r.Formats == "" {
		r.Formats = raw.Format
	}
	return nil
}

// EnqueueResponse is the 202 body (spec.md §4.10).
type EnqueueResponse struct {
	Status          string      `json:"status"`
	TaskID          string      `json:"task_id"`
	TaskStatus      *TaskStatus `json:"task_status"`
	TaskState       *TaskStatus `json:"task_state"` // deprecated mirror of TaskStatus; always equal to it
	PipelineEvent   PipelineEvent `json:"pipeline_event"`
	PollURL         string      `json:"poll_url"`
	RetryAfterSeconds int       `json:"retry_after_seconds"`
}

// PollResponse is the 200 body once the pack is ready.
type PollResponse struct {
	Status      string            `json:"status"`
	TaskID      string            `json:"task_id"`
	TaskStatus  *TaskStatus       `json:"task_status"`
	TaskState   *TaskStatus       `json:"task_state"`
	PipelineEvent PipelineEvent   `json:"pipeline_event"`
	SignedURLs  map[Format]string `json:"signed_urls,omitempty"`
	ErrorCode   string            `json:"error_code,omitempty"`
}
