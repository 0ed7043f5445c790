// Package admin implements ORIGIN's tenant-provisioning plane: creating
// tenants and rotating their API keys (spec.md §6, "/admin/**" requires
// the admin scope). Every mutation is recorded to the async audit trail
// (internal/audit) so the actions stay reconstructable after the fact.
package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/originhq/origin/internal/apperror"
	"github.com/originhq/origin/internal/audit"
	"github.com/originhq/origin/internal/httpserver"
	"github.com/originhq/origin/pkg/apikey"
	"github.com/originhq/origin/pkg/tenant"
)

// Handler provides the admin-plane HTTP handlers.
type Handler struct {
	tenants *tenant.Store
	keys    *apikey.Service
	keyRows *apikey.Store
	audit   *audit.Writer
	logger  *slog.Logger
}

func NewHandler(tenants *tenant.Store, keys *apikey.Service, keyRows *apikey.Store, auditWriter *audit.Writer, logger *slog.Logger) *Handler {
	return &Handler{tenants: tenants, keys: keys, keyRows: keyRows, audit: auditWriter, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/tenants", h.handleCreateTenant)
	r.Post("/tenants/{tenantID}/rotate-api-key", h.handleRotateAPIKey)
	return r
}

// CreateTenantRequest provisions a tenant and its first API key in one
// call — there is no human-facing signup flow to mint the initial key
// separately.
type CreateTenantRequest struct {
	Name             string                 `json:"name" validate:"required"`
	IPAllowlist      []string               `json:"ip_allowlist"`
	RateLimit        tenant.RateLimitConfig `json:"rate_limit" validate:"required"`
	PolicyProfileID  string                 `json:"policy_profile_id" validate:"required"`
	PolicyProfileVer int                    `json:"policy_profile_version" validate:"required,min=1"`
	Scopes           []apikey.Scope         `json:"scopes" validate:"required,min=1"`
}

// CreateTenantResponse echoes the new tenant alongside its first API
// key. The raw key is shown exactly once.
type CreateTenantResponse struct {
	Tenant *tenant.Tenant         `json:"tenant"`
	APIKey *apikey.CreateResponse `json:"api_key"`
}

func (h *Handler) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	t := &tenant.Tenant{
		Name:             req.Name,
		IPAllowlist:      req.IPAllowlist,
		RateLimit:        req.RateLimit,
		PolicyProfileID:  req.PolicyProfileID,
		PolicyProfileVer: req.PolicyProfileVer,
	}
	if err := h.tenants.Create(r.Context(), t); err != nil {
		h.logger.Error("admin: creating tenant", "error", err)
		httpserver.RespondAppError(w, r, apperror.Internal("creating tenant failed"))
		return
	}

	key, err := h.keys.Create(r.Context(), t.ID, req.Scopes)
	if err != nil {
		h.logger.Error("admin: minting initial api key", "error", err, "tenant_id", t.ID)
		httpserver.RespondAppError(w, r, apperror.Internal("minting initial api key failed"))
		return
	}

	h.audit.Log(audit.Entry{
		TenantID: t.ID,
		Actor:    actor(r),
		Action:   "tenant.create",
		Detail:   auditDetail(map[string]any{"name": t.Name, "api_key_id": key.ID}),
	})

	httpserver.Respond(w, http.StatusCreated, CreateTenantResponse{Tenant: t, APIKey: key})
}

// RotateAPIKeyResponse returns the freshly minted key. Callers must swap
// to it before the rotation's revoked keys stop being honored — there is
// no overlap window (spec.md has no grace-period requirement for this).
type RotateAPIKeyResponse struct {
	APIKey *apikey.CreateResponse `json:"api_key"`
}

func (h *Handler) handleRotateAPIKey(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		httpserver.RespondAppError(w, r, apperror.Validation("tenant id must be a valid UUID"))
		return
	}

	if _, err := h.tenants.GetByID(r.Context(), tenantID); err != nil {
		httpserver.RespondAppError(w, r, apperror.NotFound("tenant not found"))
		return
	}

	active, err := h.keyRows.FindActiveByTenant(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("admin: listing active keys", "error", err, "tenant_id", tenantID)
		httpserver.RespondAppError(w, r, apperror.Internal("listing active keys failed"))
		return
	}

	// Rotation preserves the set of scopes the tenant already holds,
	// taken from the union of its currently active keys.
	scopeSet := map[apikey.Scope]bool{}
	for _, k := range active {
		for _, sc := range k.Scopes {
			scopeSet[sc] = true
		}
	}
	if len(scopeSet) == 0 {
		httpserver.RespondAppError(w, r, apperror.Conflict("tenant has no active api key to rotate"))
		return
	}
	scopes := make([]apikey.Scope, 0, len(scopeSet))
	for sc := range scopeSet {
		scopes = append(scopes, sc)
	}

	for _, k := range active {
		if err := h.keyRows.Revoke(r.Context(), k.ID); err != nil {
			h.logger.Error("admin: revoking key during rotation", "error", err, "key_id", k.ID)
			httpserver.RespondAppError(w, r, apperror.Internal("revoking previous key failed"))
			return
		}
	}

	newKey, err := h.keys.Create(r.Context(), tenantID, scopes)
	if err != nil {
		h.logger.Error("admin: minting rotated api key", "error", err, "tenant_id", tenantID)
		httpserver.RespondAppError(w, r, apperror.Internal("minting rotated api key failed"))
		return
	}

	h.audit.Log(audit.Entry{
		TenantID: tenantID,
		Actor:    actor(r),
		Action:   "tenant.rotate_api_key",
		Detail:   auditDetail(map[string]any{"revoked_count": len(active), "new_key_id": newKey.ID}),
	})

	httpserver.Respond(w, http.StatusCreated, RotateAPIKeyResponse{APIKey: newKey})
}

// actor identifies who performed an admin action. Admin routes are
// authenticated by the same API-key mechanism as everything else, so the
// calling key's prefix is the closest thing to a human actor ORIGIN has.
func actor(r *http.Request) string {
	if v := r.Header.Get("x-api-key"); len(v) >= apikey.PrefixLength {
		return v[:apikey.PrefixLength]
	}
	return "unknown"
}

func auditDetail(v map[string]any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}
