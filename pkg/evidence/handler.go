package evidence

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/originhq/origin/internal/apperror"
	"github.com/originhq/origin/internal/httpserver"
	"github.com/originhq/origin/pkg/tenant"
)

// Handler provides the HTTP handlers for the evidence-pack endpoints
// (spec.md §6): POST /v1/evidence-packs, GET /v1/evidence-packs/{id},
// GET /v1/evidence-packs/{id}/download/{format}.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleEnqueue)
	r.Get("/{certificateID}", h.handlePoll)
	r.Get("/{certificateID}/download/{format}", h.handleDownload)
	return r
}

func (h *Handler) currentTenant(w http.ResponseWriter, r *http.Request) *tenant.Tenant {
	t := tenant.FromContext(r.Context())
	if t == nil {
		httpserver.RespondAppError(w, r, apperror.Unauthorized("authentication required"))
		return nil
	}
	return t
}

func (h *Handler) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req EnqueueRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	t := h.currentTenant(w, r)
	if t == nil {
		return
	}

	resp, status, err := h.service.Enqueue(r.Context(), t.ID, req, "/v1/evidence-packs", time.Now())
	if err != nil {
		h.respondServiceError(w, r, "enqueuing evidence pack", err)
		return
	}
	httpserver.Respond(w, status, resp)
}

func (h *Handler) handlePoll(w http.ResponseWriter, r *http.Request) {
	t := h.currentTenant(w, r)
	if t == nil {
		return
	}

	certificateID, err := uuid.Parse(chi.URLParam(r, "certificateID"))
	if err != nil {
		httpserver.RespondAppError(w, r, apperror.Validation("certificate_id must be a valid UUID"))
		return
	}

	resp, status, err := h.service.Poll(r.Context(), t.ID, certificateID)
	if err != nil {
		h.respondServiceError(w, r, "polling evidence pack", err)
		return
	}
	if resp.Status == string(StatusPending) && status == 202 {
		w.Header().Set("Retry-After", "2")
	}
	httpserver.Respond(w, status, resp)
}

// handleDownload redirects to a freshly presigned URL for one artifact
// format, rather than proxying the bytes through the API process.
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	t := h.currentTenant(w, r)
	if t == nil {
		return
	}

	certificateID, err := uuid.Parse(chi.URLParam(r, "certificateID"))
	if err != nil {
		httpserver.RespondAppError(w, r, apperror.Validation("certificate_id must be a valid UUID"))
		return
	}
	format := Format(chi.URLParam(r, "format"))
	if !ValidFormat(format) {
		httpserver.RespondAppError(w, r, apperror.Validation("unsupported format"))
		return
	}

	resp, status, err := h.service.Poll(r.Context(), t.ID, certificateID)
	if err != nil {
		h.respondServiceError(w, r, "resolving evidence pack for download", err)
		return
	}
	if status != 200 || resp.Status != string(StatusReady) {
		httpserver.RespondAppError(w, r, apperror.Conflict("evidence pack is not ready"))
		return
	}
	url, ok := resp.SignedURLs[format]
	if !ok {
		httpserver.RespondAppError(w, r, apperror.NotFound("format was not requested for this evidence pack"))
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	if appErr, ok := apperror.As(err); ok {
		httpserver.RespondAppError(w, r, appErr)
		return
	}
	h.logger.Error(action+" failed", "error", err)
	httpserver.RespondAppError(w, r, apperror.Internal(action+" failed"))
}
