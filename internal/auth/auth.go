// Package auth implements ORIGIN's authentication, scope-enforcement,
// IP-allowlist, and rate-limit layer (C12): API-key lookup, then — in
// declared order — scope check, rate limit, and IP check (spec.md §9
// Design Notes: "auth → scope → rate-limit → IP → route").
package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/originhq/origin/internal/apperror"
	"github.com/originhq/origin/internal/httpserver"
	"github.com/originhq/origin/pkg/apikey"
)

type contextKey string

const identityKey contextKey = "auth_identity"

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	TenantID uuid.UUID
	Key      *apikey.ApiKey
}

func NewContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func FromContext(ctx context.Context) *Identity {
	v, _ := ctx.Value(identityKey).(*Identity)
	return v
}

func respondAppError(w http.ResponseWriter, r *http.Request, err *apperror.Error) {
	httpserver.RespondAppError(w, r, err)
}
