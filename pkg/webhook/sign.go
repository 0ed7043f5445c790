package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Sign computes the normative signature: message = timestamp_bytes +
// "." + raw_body_bytes, signature = HMAC-SHA256(secret, message)
// (spec.md §4.11). rawBody must be the exact bytes transmitted — no
// re-serialization is permitted between signing and sending.
func Sign(secret []byte, timestamp int64, rawBody []byte) string {
	message := buildMessage(timestamp, rawBody)
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureHeader formats the signature the way ORIGIN emits it in
// X-Origin-Signature ("sha256=<hex>").
func SignatureHeader(secret []byte, timestamp int64, rawBody []byte) string {
	return "sha256=" + Sign(secret, timestamp, rawBody)
}

func buildMessage(timestamp int64, rawBody []byte) []byte {
	ts := []byte(strconv.FormatInt(timestamp, 10))
	message := make([]byte, 0, len(ts)+1+len(rawBody))
	message = append(message, ts...)
	message = append(message, '.')
	message = append(message, rawBody...)
	return message
}

// Verify checks a received signature against the exact bytes received,
// rejecting timestamps older than maxAge (spec.md §4.11 replay window).
// header is the full "sha256=<hex>" value.
func Verify(secret []byte, timestampHeader string, rawBody []byte, header string, now time.Time, maxAge time.Duration) error {
	timestamp, err := strconv.ParseInt(timestampHeader, 10, 64)
	if err != nil {
		return fmt.Errorf("webhook: invalid timestamp header: %w", err)
	}
	age := now.Sub(time.Unix(timestamp, 0))
	if age < 0 {
		age = -age
	}
	if age > maxAge {
		return fmt.Errorf("webhook: timestamp outside replay window (age %s)", age)
	}

	const prefix = "sha256="
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return fmt.Errorf("webhook: malformed signature header")
	}
	want := Sign(secret, timestamp, rawBody)
	got := header[len(prefix):]
	if subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		return fmt.Errorf("webhook: signature mismatch")
	}
	return nil
}
