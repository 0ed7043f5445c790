// Package tenant models ORIGIN's Tenant entity (spec.md §3): identifier,
// display name, IP allowlist, rate-limit configuration, and a policy
// profile reference. Every other domain table carries a tenant_id column
// scoped to this entity — ORIGIN uses row-level multi-tenancy, not
// per-tenant schemas.
package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RateLimitConfig is the token-bucket configuration a tenant is allotted
// (C12). Capacity and RefillPerSecond are tenant-tunable; TTLSeconds
// usually tracks the process-wide default.
type RateLimitConfig struct {
	Capacity        int `json:"capacity"`
	RefillPerSecond int `json:"refill_per_second"`
	TTLSeconds      int `json:"ttl_seconds"`
}

// Tenant is ORIGIN's top-level isolation boundary.
type Tenant struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	IPAllowlist       []string        `json:"ip_allowlist"`
	RateLimit         RateLimitConfig `json:"rate_limit"`
	PolicyProfileID   string          `json:"policy_profile_id"`
	PolicyProfileVer  int             `json:"policy_profile_version"`
	CreatedAt         time.Time       `json:"created_at"`
}

type contextKey string

const tenantKey contextKey = "tenant"

// NewContext stores the resolved tenant in the context.
func NewContext(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, tenantKey, t)
}

// FromContext extracts the tenant from the context. Returns nil if no
// tenant has been resolved (i.e. on public routes).
func FromContext(ctx context.Context) *Tenant {
	v, _ := ctx.Value(tenantKey).(*Tenant)
	return v
}
