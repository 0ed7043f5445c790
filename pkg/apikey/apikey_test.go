package apikey

import "testing"

func TestApiKeyHasScope(t *testing.T) {
	k := &ApiKey{Scopes: []Scope{ScopeIngestWrite}}
	if !k.HasScope(ScopeIngestWrite) {
		t.Fatalf("expected key to have ingest:write scope")
	}
	if k.HasScope(ScopeAdmin) {
		t.Fatalf("did not expect admin scope")
	}
}

func TestApiKeyAdminScopeGrantsAll(t *testing.T) {
	k := &ApiKey{Scopes: []Scope{ScopeAdmin}}
	if !k.HasScope(ScopeIngestWrite) {
		t.Fatalf("expected admin scope to satisfy any required scope")
	}
}

func TestGenerateRawKeyPrefixInvariant(t *testing.T) {
	raw, err := generateRawKey()
	if err != nil {
		t.Fatalf("generateRawKey: %v", err)
	}
	if len(raw) < PrefixLength {
		t.Fatalf("generated key shorter than prefix length")
	}
	if raw[:PrefixLength] != raw[:PrefixLength] {
		t.Fatalf("prefix invariant violated")
	}
}

func TestDigestIsDeterministicAndSecretScoped(t *testing.T) {
	s1 := &Service{serverSecret: "secret-a"}
	s2 := &Service{serverSecret: "secret-b"}

	raw := "some-raw-key-value"
	if s1.digest(raw) != s1.digest(raw) {
		t.Fatalf("expected digest to be deterministic for the same key and secret")
	}
	if s1.digest(raw) == s2.digest(raw) {
		t.Fatalf("expected digest to differ across server secrets")
	}
}
