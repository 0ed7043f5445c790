package evidence

import (
	"testing"

	"github.com/google/uuid"
)

func TestParseFormatsSortsAndDedupes(t *testing.T) {
	got, err := ParseFormats("pdf,json,json, HTML ")
	if err != nil {
		t.Fatalf("ParseFormats: %v", err)
	}
	want := []Format{FormatHTML, FormatJSON, FormatPDF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestParseFormatsRejectsUnknown(t *testing.T) {
	if _, err := ParseFormats("json,xml"); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

func TestParseFormatsRejectsEmpty(t *testing.T) {
	if _, err := ParseFormats(" , "); err == nil {
		t.Fatal("expected an error when no formats remain after trimming")
	}
}

func TestTaskIDIsOrderIndependentOfRequestPhrasing(t *testing.T) {
	tenantID := uuid.New()
	certificateID := uuid.New()

	a, err := ParseFormats("pdf,json")
	if err != nil {
		t.Fatalf("ParseFormats: %v", err)
	}
	b, err := ParseFormats("json,pdf")
	if err != nil {
		t.Fatalf("ParseFormats: %v", err)
	}

	idA := TaskID(tenantID, certificateID, a)
	idB := TaskID(tenantID, certificateID, b)
	if idA != idB {
		t.Fatalf("task ids diverged for equivalent format sets: %q != %q", idA, idB)
	}
	if idA[:len(taskIDPrefix)] != taskIDPrefix {
		t.Fatalf("task id %q missing prefix %q", idA, taskIDPrefix)
	}
}

func TestTaskIDDiffersByTenant(t *testing.T) {
	certificateID := uuid.New()
	formats := []Format{FormatJSON}

	id1 := TaskID(uuid.New(), certificateID, formats)
	id2 := TaskID(uuid.New(), certificateID, formats)
	if id1 == id2 {
		t.Fatal("expected different tenants to produce different task ids")
	}
}

func TestRetriedTaskIDAppendsSuffix(t *testing.T) {
	base := "evidence_pack_abcd"
	got := RetriedTaskID(base, 1700000000)
	want := "evidence_pack_abcd_retry_1700000000"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
