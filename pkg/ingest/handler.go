package ingest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/originhq/origin/internal/apperror"
	"github.com/originhq/origin/internal/httpserver"
	"github.com/originhq/origin/pkg/tenant"
)

// Handler provides the HTTP handler for POST /v1/ingest.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes returns a chi.Router with the ingest route mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleIngest)
	return r
}

func (h *Handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req Request
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	t := tenant.FromContext(r.Context())
	if t == nil {
		httpserver.RespondAppError(w, r, apperror.Unauthorized("authentication required"))
		return
	}

	resp, status, err := h.service.Ingest(r.Context(), t, r.Header.Get("idempotency-key"), req, time.Now())
	if err != nil {
		if appErr, ok := apperror.As(err); ok {
			httpserver.RespondAppError(w, r, appErr)
			return
		}
		h.logger.Error("ingest failed", "error", err)
		httpserver.RespondAppError(w, r, apperror.Internal("ingest failed"))
		return
	}

	httpserver.Respond(w, status, resp)
}
