package audit

import (
	"log/slog"
	"testing"

	"github.com/google/uuid"
)

func TestLog_DropsWhenFull(t *testing.T) {
	logger := slog.Default()
	w := NewWriter(nil, logger)
	// Don't start the background goroutine — nothing drains the channel.

	for i := 0; i < bufferSize; i++ {
		w.Log(Entry{Action: "test", Actor: "test"})
	}

	// The next log should be dropped (non-blocking).
	w.Log(Entry{Action: "dropped", Actor: "dropped"})

	if len(w.entries) != bufferSize {
		t.Errorf("buffer size = %d, want %d", len(w.entries), bufferSize)
	}
}

func TestLog_DoesNotBlockCaller(t *testing.T) {
	logger := slog.Default()
	w := NewWriter(nil, logger)

	tenantID := uuid.New()
	done := make(chan struct{})
	go func() {
		w.Log(Entry{TenantID: tenantID, Action: "tenant.create", Actor: "abcd1234"})
		close(done)
	}()

	select {
	case <-done:
	default:
	}

	entry := <-w.entries
	if entry.TenantID != tenantID {
		t.Errorf("TenantID = %v, want %v", entry.TenantID, tenantID)
	}
	if entry.Action != "tenant.create" {
		t.Errorf("Action = %q, want %q", entry.Action, "tenant.create")
	}
}
