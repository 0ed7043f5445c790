package webhook

import "testing"

func TestWebhookMatchesEventType(t *testing.T) {
	w := &Webhook{EventTypes: []string{EventDecisionIssued, "tenant.created"}}
	if !w.Matches(EventDecisionIssued) {
		t.Fatal("expected Matches to be true for a registered event type")
	}
	if w.Matches("unrelated.event") {
		t.Fatal("expected Matches to be false for an unregistered event type")
	}
}

func TestBackoffScheduleLengthMatchesMaxAttempts(t *testing.T) {
	if len(BackoffSchedule) != MaxAttempts {
		t.Fatalf("BackoffSchedule has %d entries, MaxAttempts = %d", len(BackoffSchedule), MaxAttempts)
	}
}

func TestOutcomeLabel(t *testing.T) {
	cases := []struct {
		success, deadLettered bool
		want                  string
	}{
		{true, false, "success"},
		{false, true, "dead_lettered"},
		{false, false, "retry"},
	}
	for _, c := range cases {
		if got := outcomeLabel(c.success, c.deadLettered); got != c.want {
			t.Fatalf("outcomeLabel(%v, %v) = %q, want %q", c.success, c.deadLettered, got, c.want)
		}
	}
}
