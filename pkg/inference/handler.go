package inference

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/originhq/origin/internal/httpserver"
)

// Handler provides the HTTP handler for GET /v1/models/status.
type Handler struct {
	scorer Scorer
}

func NewHandler(scorer Scorer) *Handler {
	return &Handler{scorer: scorer}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleStatus)
	return r
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	httpserver.Respond(w, http.StatusOK, h.scorer.Status())
}
