package admin

import (
	"net/http/httptest"
	"testing"

	"github.com/originhq/origin/pkg/apikey"
)

func TestActor_FromAPIKeyHeader(t *testing.T) {
	r := httptest.NewRequest("POST", "/admin/tenants", nil)
	r.Header.Set("x-api-key", "ok_live_abcdefghijklmnop")

	got := actor(r)
	want := "ok_live_abcdefghijklmnop"[:apikey.PrefixLength]
	if got != want {
		t.Errorf("actor = %q, want %q", got, want)
	}
}

func TestActor_MissingHeader(t *testing.T) {
	r := httptest.NewRequest("POST", "/admin/tenants", nil)

	got := actor(r)
	if got != "unknown" {
		t.Errorf("actor = %q, want %q", got, "unknown")
	}
}

func TestActor_HeaderShorterThanPrefix(t *testing.T) {
	r := httptest.NewRequest("POST", "/admin/tenants", nil)
	r.Header.Set("x-api-key", "short")

	got := actor(r)
	if got != "unknown" {
		t.Errorf("actor = %q, want %q", got, "unknown")
	}
}

func TestAuditDetail_MarshalsMap(t *testing.T) {
	raw := auditDetail(map[string]any{"name": "acme", "count": 3})

	want := `{"count":3,"name":"acme"}`
	if string(raw) != want {
		t.Errorf("auditDetail = %s, want %s", raw, want)
	}
}
