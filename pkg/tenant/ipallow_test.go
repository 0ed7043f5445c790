package tenant

import "testing"

func TestIPAllowedEmptyAllowlistPermitsEverything(t *testing.T) {
	if !IPAllowed("1.2.3.4", nil, false, nil) {
		t.Fatalf("expected empty allowlist to allow all addresses")
	}
}

func TestIPAllowedExactMatch(t *testing.T) {
	if !IPAllowed("10.0.0.5", []string{"10.0.0.5"}, false, nil) {
		t.Fatalf("expected exact match to be allowed")
	}
	if IPAllowed("10.0.0.6", []string{"10.0.0.5"}, false, nil) {
		t.Fatalf("expected non-matching exact entry to be denied")
	}
}

func TestIPAllowedCIDRMatch(t *testing.T) {
	if !IPAllowed("192.168.1.42", []string{"192.168.1.0/24"}, false, nil) {
		t.Fatalf("expected address within CIDR to be allowed")
	}
	if IPAllowed("192.168.2.42", []string{"192.168.1.0/24"}, false, nil) {
		t.Fatalf("expected address outside CIDR to be denied")
	}
}

func TestIPAllowedFailClosedOnParseError(t *testing.T) {
	var badEntries []string
	onErr := func(entry string) { badEntries = append(badEntries, entry) }

	if IPAllowed("1.2.3.4", []string{"not-an-ip"}, false, onErr) {
		t.Fatalf("expected fail-closed behavior for unparseable entry")
	}
	if len(badEntries) != 1 {
		t.Fatalf("expected parse-error callback to fire once, got %d", len(badEntries))
	}
}

func TestIPAllowedFailOpenOnParseError(t *testing.T) {
	if !IPAllowed("1.2.3.4", []string{"not-an-ip"}, true, nil) {
		t.Fatalf("expected fail-open behavior for unparseable entry")
	}
}
