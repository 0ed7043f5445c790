package evidence

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestPackReadyInvariant(t *testing.T) {
	certID := uuid.New()
	p := &Pack{
		CertificateID:    certID,
		FormatsRequested: []Format{FormatJSON, FormatPDF},
		StorageKeys:      map[Format]string{FormatJSON: "k1"},
		ArtifactHashes:   map[Format]string{FormatJSON: "h1"},
	}
	if p.Ready() {
		t.Fatal("expected Ready() to be false while pdf has no storage key")
	}

	p.StorageKeys[FormatPDF] = "k2"
	p.ArtifactHashes[FormatPDF] = "h2"
	if !p.Ready() {
		t.Fatal("expected Ready() to be true once every requested format has a key and hash")
	}
}

func TestEnqueueRequestAcceptsFormatOrFormatsKey(t *testing.T) {
	certID := uuid.New()

	var a EnqueueRequest
	bodyA := []byte(`{"certificate_id":"` + certID.String() + `","formats":"json,pdf"}`)
	if err := json.Unmarshal(bodyA, &a); err != nil {
		t.Fatalf("unmarshal with formats key: %v", err)
	}
	if a.Formats != "json,pdf" {
		t.Fatalf("got %q, want %q", a.Formats, "json,pdf")
	}

	var b EnqueueRequest
	bodyB := []byte(`{"certificate_id":"` + certID.String() + `","format":"json,pdf"}`)
	if err := json.Unmarshal(bodyB, &b); err != nil {
		t.Fatalf("unmarshal with format key: %v", err)
	}
	if b.Formats != "json,pdf" {
		t.Fatalf("got %q, want %q", b.Formats, "json,pdf")
	}
}

func TestEnqueueResponseTaskStateMirrorsTaskStatus(t *testing.T) {
	status := TaskPending
	resp := EnqueueResponse{TaskStatus: &status, TaskState: &status}
	if resp.TaskState == nil || *resp.TaskState != *resp.TaskStatus {
		t.Fatal("task_state must always equal task_status")
	}
}
