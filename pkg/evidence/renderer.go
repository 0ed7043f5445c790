package evidence

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html"
	"time"

	"github.com/originhq/origin/pkg/certificate"
	"github.com/originhq/origin/pkg/upload"
)

// document is the JSON evidence document for one decision: the
// certificate's hashes and signing key, the decision, and the upload's
// feature inputs. ML signals and fired rule names are not included.
// The PDF/HTML renderings are textual projections of the same document;
// the PDF renderer itself is an external collaborator (spec.md §1 Out of
// scope) — only its artifact contract (bytes in, SHA-256'd, stored by
// key) matters here, so this module renders a deterministic plaintext
// stand-in that exercises that exact contract.
type document struct {
	CertificateID     string          `json:"certificate_id"`
	UploadExternalID  string          `json:"upload_external_id"`
	Decision          string          `json:"decision"`
	PolicyVersion     int             `json:"policy_version"`
	InputsHash        string          `json:"inputs_hash"`
	OutputsHash       string          `json:"outputs_hash"`
	LedgerHash        string          `json:"ledger_hash"`
	KeyID             string          `json:"key_id"`
	Alg               string          `json:"alg"`
	IssuedAt          time.Time       `json:"issued_at"`
	Features          json.RawMessage `json:"features"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

func buildDocument(cert *certificate.Certificate, u *upload.Upload, now time.Time) document {
	return document{
		CertificateID:    cert.CertificateID.String(),
		UploadExternalID: u.ExternalID,
		Decision:         u.Decision,
		PolicyVersion:    cert.PolicyVersion,
		InputsHash:       cert.InputsHash,
		OutputsHash:      cert.OutputsHash,
		LedgerHash:       cert.LedgerHash,
		KeyID:            cert.KeyID,
		Alg:              cert.Alg,
		IssuedAt:         cert.IssuedAt,
		Features:         u.DecisionInputsJSON,
		GeneratedAt:      now,
	}
}

// render produces the artifact bytes and content type for one format.
func render(format Format, cert *certificate.Certificate, u *upload.Upload, now time.Time) ([]byte, string, error) {
	doc := buildDocument(cert, u, now)

	switch format {
	case FormatJSON:
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("evidence: rendering json: %w", err)
		}
		return b, "application/json", nil

	case FormatHTML:
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "<html><head><title>Evidence Pack %s</title></head><body>\n", html.EscapeString(doc.CertificateID))
		fmt.Fprintf(&buf, "<h1>Decision Certificate %s</h1>\n", html.EscapeString(doc.CertificateID))
		fmt.Fprintf(&buf, "<p>Upload: %s</p>\n", html.EscapeString(doc.UploadExternalID))
		fmt.Fprintf(&buf, "<p>Decision: %s</p>\n", html.EscapeString(doc.Decision))
		fmt.Fprintf(&buf, "<p>Policy version: %d</p>\n", doc.PolicyVersion)
		fmt.Fprintf(&buf, "<p>Inputs hash: %s</p>\n", html.EscapeString(doc.InputsHash))
		fmt.Fprintf(&buf, "<p>Outputs hash: %s</p>\n", html.EscapeString(doc.OutputsHash))
		fmt.Fprintf(&buf, "<p>Ledger hash: %s</p>\n", html.EscapeString(doc.LedgerHash))
		fmt.Fprintf(&buf, "<p>Signed by key %s (%s)</p>\n", html.EscapeString(doc.KeyID), html.EscapeString(doc.Alg))
		fmt.Fprintf(&buf, "<p>Issued at: %s</p>\n", doc.IssuedAt.Format(time.RFC3339))
		buf.WriteString("</body></html>\n")
		return buf.Bytes(), "text/html", nil

	case FormatPDF:
		// A minimal, valid single-page PDF carrying the same evidence
		// text as the HTML rendering — enough to exercise the storage and
		// signing contract without depending on a real layout engine.
		body := fmt.Sprintf("Evidence Pack\nCertificate: %s\nUpload: %s\nDecision: %s\nPolicy version: %d\nInputs hash: %s\nOutputs hash: %s\nLedger hash: %s\nIssued at: %s\n",
			doc.CertificateID, doc.UploadExternalID, doc.Decision, doc.PolicyVersion, doc.InputsHash, doc.OutputsHash, doc.LedgerHash, doc.IssuedAt.Format(time.RFC3339))
		return minimalPDF(body), "application/pdf", nil

	default:
		return nil, "", fmt.Errorf("evidence: unsupported format %q", format)
	}
}

// minimalPDF wraps text in a single-page PDF structure — enough to be a
// well-formed PDF that any reader can open, not a typeset document.
func minimalPDF(text string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	buf.WriteString("1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj\n")
	buf.WriteString("2 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 >> endobj\n")
	buf.WriteString("3 0 obj << /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >> endobj\n")

	var content bytes.Buffer
	content.WriteString("BT /F1 10 Tf 50 740 Td\n")
	y := 0
	for _, line := range splitLines(text) {
		if y > 0 {
			content.WriteString("0 -14 Td\n")
		}
		fmt.Fprintf(&content, "(%s) Tj\n", escapePDFString(line))
		y++
	}
	content.WriteString("ET\n")

	fmt.Fprintf(&buf, "4 0 obj << /Length %d >> stream\n%s\nendstream endobj\n", content.Len(), content.String())
	buf.WriteString("5 0 obj << /Type /Font /Subtype /Type1 /BaseFont /Helvetica >> endobj\n")
	buf.WriteString("trailer << /Root 1 0 R >>\n")
	return buf.Bytes()
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func escapePDFString(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '(', ')', '\\':
			buf.WriteByte('\\')
			buf.WriteRune(r)
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
