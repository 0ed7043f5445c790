package evidence

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/originhq/origin/pkg/certificate"
	"github.com/originhq/origin/pkg/upload"
)

func testCertAndUpload() (*certificate.Certificate, *upload.Upload) {
	now := time.Unix(1700000000, 0).UTC()
	cert := &certificate.Certificate{
		CertificateID: uuid.New(),
		TenantID:      uuid.New(),
		UploadID:      uuid.New(),
		PolicyVersion: 3,
		InputsHash:    "inputs-hash",
		OutputsHash:   "outputs-hash",
		LedgerHash:    "ledger-hash",
		KeyID:         "key-1",
		Alg:           "PS256",
		Signature:     "sig",
		IssuedAt:      now,
	}
	u := &upload.Upload{
		ID:                 cert.UploadID,
		ExternalID:         "up1",
		Decision:           "ALLOW",
		DecisionInputsJSON: json.RawMessage(`{"account_age_days":10}`),
		CertificateID:      cert.CertificateID,
	}
	return cert, u
}

func TestRenderJSONIsDeterministic(t *testing.T) {
	cert, u := testCertAndUpload()
	now := time.Unix(1700000100, 0).UTC()

	b1, ct, err := render(FormatJSON, cert, u, now)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if ct != "application/json" {
		t.Fatalf("content type = %q, want application/json", ct)
	}
	b2, _, err := render(FormatJSON, cert, u, now)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.Equal(b1, b2) {
		t.Fatal("expected identical inputs to render identical json bytes")
	}

	var doc document
	if err := json.Unmarshal(b1, &doc); err != nil {
		t.Fatalf("unmarshal rendered json: %v", err)
	}
	if doc.CertificateID != cert.CertificateID.String() {
		t.Fatalf("certificate_id = %q, want %q", doc.CertificateID, cert.CertificateID.String())
	}
	if doc.Decision != "ALLOW" {
		t.Fatalf("decision = %q, want ALLOW", doc.Decision)
	}
}

func TestRenderHTMLEscapesDecision(t *testing.T) {
	cert, u := testCertAndUpload()
	u.Decision = "<script>"

	b, ct, err := render(FormatHTML, cert, u, time.Now())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if ct != "text/html" {
		t.Fatalf("content type = %q, want text/html", ct)
	}
	if bytes.Contains(b, []byte("<script>")) {
		t.Fatal("expected decision value to be HTML-escaped")
	}
}

func TestRenderPDFProducesWellFormedHeader(t *testing.T) {
	cert, u := testCertAndUpload()

	b, ct, err := render(FormatPDF, cert, u, time.Now())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if ct != "application/pdf" {
		t.Fatalf("content type = %q, want application/pdf", ct)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-1.4")) {
		t.Fatal("expected the PDF artifact to start with a PDF header")
	}
	if !bytes.Contains(b, []byte("trailer")) {
		t.Fatal("expected the PDF artifact to contain a trailer")
	}
}

func TestRenderUnsupportedFormat(t *testing.T) {
	cert, u := testCertAndUpload()
	if _, _, err := render(Format("docx"), cert, u, time.Now()); err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
}
