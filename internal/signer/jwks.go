package signer

import (
	"log/slog"
	"net/http"

	"github.com/go-jose/go-jose/v4"

	"github.com/originhq/origin/internal/httpserver"
)

// Handler serves the public JWKS document (GET /v1/keys/jwks.json) so
// relying parties can verify certificate signatures without ever talking
// to the signer directly.
type Handler struct {
	signer Signer
	logger *slog.Logger
}

func NewHandler(s Signer, logger *slog.Logger) *Handler {
	return &Handler{signer: s, logger: logger}
}

func (h *Handler) HandleJWKS(w http.ResponseWriter, r *http.Request) {
	keys, err := h.signer.PublicJWKS(r.Context())
	if err != nil {
		h.logger.Error("fetching public jwks failed", "error", err)
		httpserver.RespondError(w, r, http.StatusServiceUnavailable, "unavailable", "signing key unavailable")
		return
	}
	httpserver.Respond(w, http.StatusOK, jose.JSONWebKeySet{Keys: keys})
}
