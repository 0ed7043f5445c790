package identity

import (
	"testing"

	"github.com/google/uuid"
)

func TestDerivePVIDDeterministic(t *testing.T) {
	tenant := uuid.New()
	a := DerivePVID(tenant, "acct-1", "dev-1")
	b := DerivePVID(tenant, "acct-1", "dev-1")
	if a != b {
		t.Fatalf("expected deterministic PVID, got %q and %q", a, b)
	}
}

func TestDerivePVIDDiffersOnAttributes(t *testing.T) {
	tenant := uuid.New()
	a := DerivePVID(tenant, "acct-1", "dev-1")
	b := DerivePVID(tenant, "acct-2", "dev-1")
	if a == b {
		t.Fatalf("expected PVID to differ across account ids")
	}
}

func TestDerivePVIDDiffersAcrossTenants(t *testing.T) {
	a := DerivePVID(uuid.New(), "acct-1", "dev-1")
	b := DerivePVID(uuid.New(), "acct-1", "dev-1")
	if a == b {
		t.Fatalf("expected PVID to be tenant-scoped")
	}
}
