package auth

import (
	"log/slog"
	"net/http"

	"github.com/originhq/origin/internal/apperror"
	"github.com/originhq/origin/pkg/apikey"
	"github.com/originhq/origin/pkg/tenant"
)

// Authenticate resolves the caller from the x-api-key header (spec.md §6:
// "required on all non-public routes"). There is no session/OIDC surface
// in ORIGIN — API-key is the only credential.
func Authenticate(keys *apikey.Service, tenants *tenant.Store, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawKey := r.Header.Get("x-api-key")
			if rawKey == "" {
				respondAppError(w, r, apperror.Unauthorized("missing x-api-key header"))
				return
			}

			key, err := keys.Authenticate(r.Context(), rawKey)
			if err != nil {
				logger.Warn("api key authentication failed", "error", err)
				respondAppError(w, r, apperror.Unauthorized("invalid API key"))
				return
			}

			t, err := tenants.GetByID(r.Context(), key.TenantID)
			if err != nil {
				logger.Error("tenant lookup for authenticated key failed", "tenant_id", key.TenantID, "error", err)
				respondAppError(w, r, apperror.Unauthorized("tenant not found"))
				return
			}

			ctx := NewContext(r.Context(), &Identity{TenantID: key.TenantID, Key: key})
			ctx = tenant.NewContext(ctx, t)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
