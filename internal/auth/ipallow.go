package auth

import (
	"net"
	"net/http"

	"github.com/originhq/origin/internal/apperror"
	"github.com/originhq/origin/internal/telemetry"
	"github.com/originhq/origin/pkg/tenant"
)

// clientIP extracts the request's source IP, preferring X-Forwarded-For's
// first hop when present so this works behind a load balancer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := indexByte(fwd, ','); i >= 0 {
			return fwd[:i]
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// IPAllowlist enforces the authenticated tenant's IP allowlist
// (spec.md §3 Tenant.IPAllowlist, §4.12). failOpen governs behavior when
// an allowlist entry fails to parse; production wiring passes false.
func IPAllowlist(failOpen bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := tenant.FromContext(r.Context())
			if t == nil {
				respondAppError(w, r, apperror.Unauthorized("authentication required"))
				return
			}

			ip := clientIP(r)
			allowed := tenant.IPAllowed(ip, t.IPAllowlist, failOpen, nil)
			if !allowed {
				telemetry.IPDeniedTotal.WithLabelValues(t.ID.String()).Inc()
				respondAppError(w, r, apperror.IPDenied())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
