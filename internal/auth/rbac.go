package auth

import (
	"net/http"

	"github.com/originhq/origin/internal/apperror"
	"github.com/originhq/origin/pkg/apikey"
)

// RequireAuth rejects requests that have no authenticated identity.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) == nil {
			respondAppError(w, r, apperror.Unauthorized("authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireMethodScope rejects requests whose key lacks the scope required
// for the request's method: readScope for GET/HEAD, writeScope for
// everything else. Used where a single route group mixes reads and
// writes under different scopes (spec.md §4.12: /v1/webhooks).
func RequireMethodScope(readScope, writeScope apikey.Scope) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := writeScope
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				scope = readScope
			}
			RequireScope(scope)(next).ServeHTTP(w, r)
		})
	}
}

// RequireScope rejects requests whose key lacks scope. The admin scope
// satisfies every required-scope check (spec.md §4.12) — there is no
// role hierarchy in ORIGIN, only this flat scope set.
func RequireScope(scope apikey.Scope) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := FromContext(r.Context())
			if id == nil || id.Key == nil {
				respondAppError(w, r, apperror.Unauthorized("authentication required"))
				return
			}
			if !id.Key.HasScope(scope) {
				respondAppError(w, r, apperror.InsufficientScope(string(scope)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
