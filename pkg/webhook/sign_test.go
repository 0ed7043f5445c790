package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"testing"
	"time"
)

func TestSignMatchesSpecExample(t *testing.T) {
	secret := []byte("s3cr3t")
	timestamp := int64(1700000000)
	body := []byte(`{"a":1,"b":2}`)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte("1700000000."))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))

	got := Sign(secret, timestamp, body)
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestVerifyRejectsReorderedBody(t *testing.T) {
	secret := []byte("s3cr3t")
	timestamp := time.Now().Unix()
	original := []byte(`{"a":1,"b":2}`)
	reordered := []byte(`{"b":2,"a":1}`)

	header := SignatureHeader(secret, timestamp, original)
	timestampHeader := toTimestampHeader(timestamp)

	if err := Verify(secret, timestampHeader, original, header, time.Now(), ReplayWindow); err != nil {
		t.Fatalf("expected original body to verify: %v", err)
	}
	if err := Verify(secret, timestampHeader, reordered, header, time.Now(), ReplayWindow); err == nil {
		t.Fatal("expected a reordered body to fail verification")
	}
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	secret := []byte("s3cr3t")
	old := time.Now().Add(-10 * time.Minute).Unix()
	body := []byte(`{"x":1}`)
	header := SignatureHeader(secret, old, body)

	if err := Verify(secret, toTimestampHeader(old), body, header, time.Now(), ReplayWindow); err == nil {
		t.Fatal("expected a timestamp outside the replay window to be rejected")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	timestamp := time.Now().Unix()
	body := []byte(`{"x":1}`)
	header := SignatureHeader([]byte("right-secret"), timestamp, body)

	if err := Verify([]byte("wrong-secret"), toTimestampHeader(timestamp), body, header, time.Now(), ReplayWindow); err == nil {
		t.Fatal("expected verification to fail with the wrong secret")
	}
}

func toTimestampHeader(ts int64) string {
	return strconv.FormatInt(ts, 10)
}
