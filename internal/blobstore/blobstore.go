// Package blobstore implements ORIGIN's evidence-artifact storage
// abstraction (C3): an S3-backed variant for every real deployment and a
// filesystem-backed variant for development.
package blobstore

import (
	"context"
	"time"
)

// Store puts, retrieves, and presigns evidence artifacts.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Presign(ctx context.Context, key string, ttl time.Duration) (string, error)
	BucketExists(ctx context.Context) (bool, error)
}
