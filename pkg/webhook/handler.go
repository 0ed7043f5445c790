package webhook

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/originhq/origin/internal/apperror"
	"github.com/originhq/origin/internal/cryptoprovider"
	"github.com/originhq/origin/internal/httpserver"
	"github.com/originhq/origin/pkg/tenant"
)

// Handler provides the HTTP handlers for webhook registration, test
// delivery, and delivery history (spec.md §6).
type Handler struct {
	store  *Store
	crypto cryptoprovider.Provider
	dispatcher *Dispatcher // reused only for its signing/sending path, via SendOnce
	logger *slog.Logger
}

func NewHandler(store *Store, crypto cryptoprovider.Provider, dispatcher *Dispatcher, logger *slog.Logger) *Handler {
	return &Handler{store: store, crypto: crypto, dispatcher: dispatcher, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleCreate)
	r.Post("/test", h.handleTest)
	r.Get("/{webhookID}/deliveries", h.handleDeliveries)
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

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	t := h.currentTenant(w, r)
	if t == nil {
		return
	}

	secret, err := generateSecret()
	if err != nil {
		h.logger.Error("generating webhook secret failed", "error", err)
		httpserver.RespondAppError(w, r, apperror.Internal("generating webhook secret"))
		return
	}
	ciphertext, err := h.crypto.Encrypt(r.Context(), []byte(secret))
	if err != nil {
		h.logger.Error("encrypting webhook secret failed", "error", err)
		httpserver.RespondAppError(w, r, apperror.Internal("encrypting webhook secret"))
		return
	}

	wh := &Webhook{
		ID:               uuid.New(),
		TenantID:         t.ID,
		URL:              req.URL,
		SecretCiphertext: ciphertext,
		EventTypes:       req.EventTypes,
		Active:           true,
	}
	if err := h.store.CreateWebhook(r.Context(), wh); err != nil {
		h.logger.Error("creating webhook failed", "error", err)
		httpserver.RespondAppError(w, r, apperror.Internal("creating webhook"))
		return
	}

	httpserver.Respond(w, http.StatusCreated, CreateResponse{
		ID: wh.ID, URL: wh.URL, EventTypes: wh.EventTypes, Secret: secret, CreatedAt: wh.CreatedAt,
	})
}

func (h *Handler) handleTest(w http.ResponseWriter, r *http.Request) {
	var req TestRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	t := h.currentTenant(w, r)
	if t == nil {
		return
	}

	wh, err := h.store.GetWebhook(r.Context(), t.ID, req.WebhookID)
	if err != nil {
		httpserver.RespondAppError(w, r, apperror.NotFound("webhook not found"))
		return
	}

	statusCode, err := h.dispatcher.SendOnce(r.Context(), wh, EventTest, []byte(`{"ping":true}`))
	if err != nil {
		h.logger.Warn("webhook test delivery failed", "webhook_id", wh.ID, "error", err)
		httpserver.Respond(w, http.StatusOK, TestResponse{Success: false})
		return
	}
	httpserver.Respond(w, http.StatusOK, TestResponse{Success: statusCode >= 200 && statusCode < 300, HTTPStatus: statusCode})
}

func (h *Handler) handleDeliveries(w http.ResponseWriter, r *http.Request) {
	t := h.currentTenant(w, r)
	if t == nil {
		return
	}
	webhookID, err := uuid.Parse(chi.URLParam(r, "webhookID"))
	if err != nil {
		httpserver.RespondAppError(w, r, apperror.Validation("webhook id must be a valid UUID"))
		return
	}

	deliveries, err := h.store.ListDeliveries(r.Context(), t.ID, webhookID)
	if err != nil {
		httpserver.RespondAppError(w, r, apperror.NotFound("webhook not found"))
		return
	}

	out := make([]DeliveryResponse, len(deliveries))
	for i, d := range deliveries {
		out[i] = DeliveryResponse{
			ID: d.ID, Attempt: d.Attempt, HTTPStatus: d.HTTPStatus,
			Success: d.Success, DeadLettered: d.DeadLettered,
			CorrelationID: d.CorrelationID, CreatedAt: d.CreatedAt,
		}
	}
	httpserver.Respond(w, http.StatusOK, out)
}

func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
