package signer

import (
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/go-jose/go-jose/v4"
)

// KMS signs via an AWS KMS asymmetric RSASSA_PSS_SHA_256 key. The JWKS it
// publishes is derived from KMS's own GetPublicKey response, so the
// published key material always matches what KMS actually signs with.
type KMS struct {
	client kmsAPI
	keyID  string
}

// kmsAPI is the subset of *kms.Client this package calls, so tests can
// substitute a fake without a live AWS account.
type kmsAPI interface {
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
}

var _ kmsAPI = (*kms.Client)(nil)

// NewKMS verifies the key exists, supports RSASSA_PSS_SHA_256 signing, and
// accepts a probe Sign call before returning — the startup fail-fast check
// required by spec §4.1 when KMS is unreachable or lacks sign permission.
func NewKMS(ctx context.Context, client kmsAPI, keyID string) (*KMS, error) {
	out, err := client.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: &keyID})
	if err != nil {
		return nil, fmt.Errorf("signer: kms GetPublicKey: %w", err)
	}

	supported := false
	for _, alg := range out.SigningAlgorithms {
		if alg == types.SigningAlgorithmSpecRsassaPssSha256 {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("signer: kms key %s does not support RSASSA_PSS_SHA_256", keyID)
	}

	probe := sha256.Sum256([]byte("origin-signer-startup-probe"))
	if _, err := client.Sign(ctx, &kms.SignInput{
		KeyId:            &keyID,
		Message:          probe[:],
		MessageType:      types.MessageTypeDigest,
		SigningAlgorithm: types.SigningAlgorithmSpecRsassaPssSha256,
	}); err != nil {
		return nil, fmt.Errorf("signer: kms key %s cannot sign: %w", keyID, err)
	}

	return &KMS{client: client, keyID: keyID}, nil
}

func (k *KMS) Sign(ctx context.Context, payload []byte) ([]byte, string, error) {
	digest := sha256.Sum256(payload)

	out, err := k.client.Sign(ctx, &kms.SignInput{
		KeyId:            &k.keyID,
		Message:          digest[:],
		MessageType:      types.MessageTypeDigest,
		SigningAlgorithm: types.SigningAlgorithmSpecRsassaPssSha256,
	})
	if err != nil {
		return nil, "", fmt.Errorf("signer: kms sign: %w", err)
	}
	return out.Signature, k.keyID, nil
}

func (k *KMS) PublicJWKS(ctx context.Context) ([]jose.JSONWebKey, error) {
	out, err := k.client.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: &k.keyID})
	if err != nil {
		return nil, fmt.Errorf("signer: kms GetPublicKey: %w", err)
	}

	pub, err := x509.ParsePKIXPublicKey(out.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("signer: parsing kms public key: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("signer: kms key %s is not an RSA key", k.keyID)
	}

	return []jose.JSONWebKey{{
		Key:       rsaPub,
		KeyID:     k.keyID,
		Algorithm: Alg,
		Use:       "sig",
	}}, nil
}

func (k *KMS) ActiveKeyID() string { return k.keyID }
