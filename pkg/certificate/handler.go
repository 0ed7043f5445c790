package certificate

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/originhq/origin/internal/apperror"
	"github.com/originhq/origin/internal/httpserver"
	"github.com/originhq/origin/pkg/tenant"
)

// Handler provides the HTTP handler for GET /v1/certificates/{id}.
type Handler struct {
	store  *Store
	logger *slog.Logger
}

func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{certificateID}", h.handleGet)
	return r
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromContext(r.Context())
	if t == nil {
		httpserver.RespondAppError(w, r, apperror.Unauthorized("authentication required"))
		return
	}

	certificateID, err := uuid.Parse(chi.URLParam(r, "certificateID"))
	if err != nil {
		httpserver.RespondAppError(w, r, apperror.Validation("certificate id must be a valid UUID"))
		return
	}

	cert, err := h.store.GetByID(r.Context(), t.ID, certificateID)
	if err != nil {
		httpserver.RespondAppError(w, r, apperror.NotFound("certificate not found"))
		return
	}

	httpserver.Respond(w, http.StatusOK, cert)
}
