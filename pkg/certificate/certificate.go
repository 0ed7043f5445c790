// Package certificate implements the Certificate Service (C8): builds
// the inputs/outputs hash pair, signs the canonical certificate payload,
// and persists the result (spec.md §4.8).
package certificate

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/originhq/origin/internal/canon"
	"github.com/originhq/origin/internal/signer"
)

// Certificate is the persisted, signed decision record.
type Certificate struct {
	CertificateID     uuid.UUID `json:"certificate_id"`
	TenantID          uuid.UUID `json:"tenant_id"`
	UploadID          uuid.UUID `json:"upload_id"`
	PolicyVersion     int       `json:"policy_version"`
	InputsHash        string    `json:"inputs_hash"`
	OutputsHash       string    `json:"outputs_hash"`
	LedgerHash        string    `json:"ledger_hash"`
	KeyID             string    `json:"key_id"`
	Alg               string    `json:"alg"`
	Signature         string    `json:"signature"`
	SignatureEncoding string    `json:"signature_encoding"`
	IssuedAt          time.Time `json:"issued_at"`
}

// Inputs is hashed and referenced by InputsHash but not stored verbatim
// on the Certificate row. The Upload row keeps the features
// (decision_inputs_json) but not the signals, and Inputs is not
// recomputed after issuance.
type Inputs struct {
	PolicyVersion       int     `json:"policy_version"`
	Features            any     `json:"features"`
	Signals             any     `json:"signals"`
	RiskModelVersion    string  `json:"risk_model_version"`
	AnomalyModelVersion string  `json:"anomaly_model_version"`
}

// Outputs is hashed and referenced by OutputsHash.
type Outputs struct {
	Decision string   `json:"decision"`
	Reasons  []string `json:"reasons"`
}

// signedPayload is the canonical JSON whose signature IS the
// certificate's signature (spec.md §4.8).
type signedPayload struct {
	CertificateID uuid.UUID `json:"certificate_id"`
	TenantID      uuid.UUID `json:"tenant_id"`
	UploadID      uuid.UUID `json:"upload_id"`
	PolicyVersion int       `json:"policy_version"`
	InputsHash    string    `json:"inputs_hash"`
	OutputsHash   string    `json:"outputs_hash"`
	LedgerHash    string    `json:"ledger_hash"`
	IssuedAt      time.Time `json:"issued_at"`
	Alg           string    `json:"alg"`
	KeyID         string    `json:"key_id"`
}

// Service issues Certificates.
type Service struct {
	signer signer.Signer
}

func NewService(s signer.Signer) *Service {
	return &Service{signer: s}
}

// Issue builds, signs, and returns a Certificate. Persistence is the
// caller's responsibility — ingest commits it alongside the rest of the
// transaction (spec.md §4.9 step 9).
func (s *Service) Issue(ctx context.Context, tenantID, uploadID uuid.UUID, inputs Inputs, outputs Outputs, ledgerHash string, now time.Time) (*Certificate, error) {
	inputsHash, err := hashCanonical(inputs)
	if err != nil {
		return nil, fmt.Errorf("certificate: hashing inputs: %w", err)
	}
	outputsHash, err := hashCanonical(outputs)
	if err != nil {
		return nil, fmt.Errorf("certificate: hashing outputs: %w", err)
	}

	cert := &Certificate{
		CertificateID: uuid.New(),
		TenantID:      tenantID,
		UploadID:      uploadID,
		PolicyVersion: inputs.PolicyVersion,
		InputsHash:    inputsHash,
		OutputsHash:   outputsHash,
		LedgerHash:    ledgerHash,
		Alg:           signer.Alg,
		KeyID:         s.signer.ActiveKeyID(),
		IssuedAt:      now,
	}

	payload := signedPayload{
		CertificateID: cert.CertificateID,
		TenantID:      cert.TenantID,
		UploadID:      cert.UploadID,
		PolicyVersion: cert.PolicyVersion,
		InputsHash:    cert.InputsHash,
		OutputsHash:   cert.OutputsHash,
		LedgerHash:    cert.LedgerHash,
		IssuedAt:      cert.IssuedAt,
		Alg:           cert.Alg,
		KeyID:         cert.KeyID,
	}
	canonicalPayload, err := canon.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("certificate: canonicalizing payload: %w", err)
	}

	sig, keyID, err := s.signer.Sign(ctx, canonicalPayload)
	if err != nil {
		return nil, fmt.Errorf("certificate: signing: %w", err)
	}
	cert.KeyID = keyID
	cert.Signature = base64.RawURLEncoding.EncodeToString(sig)
	cert.SignatureEncoding = "base64url"

	return cert, nil
}

func hashCanonical(v any) (string, error) {
	b, err := canon.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
