package blobstore

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestFSPutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewFS(dir)

	key := "tenant-1/cert-1/json"
	data := []byte(`{"ok":true}`)

	if err := store.Put(context.Background(), key, data, "application/json"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestFSPresignReturnsFileURL(t *testing.T) {
	dir := t.TempDir()
	store := NewFS(dir)

	url, err := store.Presign(context.Background(), "a/b", 0)
	if err != nil {
		t.Fatalf("Presign: %v", err)
	}
	if !strings.HasPrefix(url, "file://") {
		t.Fatalf("got %q, want file:// prefix", url)
	}
}

func TestFSBucketExists(t *testing.T) {
	dir := t.TempDir()
	store := NewFS(dir)

	ok, err := store.BucketExists(context.Background())
	if err != nil {
		t.Fatalf("BucketExists: %v", err)
	}
	if !ok {
		t.Fatalf("expected existing temp dir to report true")
	}
}
