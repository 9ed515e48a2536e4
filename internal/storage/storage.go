// Package storage defines the interface for object storage operations.
// Swap implementations by changing the concrete type injected at startup —
// the MinIO implementation works with any S3-compatible provider
// (MinIO, Supabase Storage, AWS S3).
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotConfigured is returned by every operation when the storage
// endpoint or credentials are missing from the environment.
var ErrNotConfigured = errors.New("object storage is not configured: set STORAGE_ENDPOINT, STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY")

// Storage is the interface for uploading and retrieving objects.
// The bucket is passed per call; keys are relative paths inside it.
type Storage interface {
	// Upload stores data under key in the given bucket.
	Upload(ctx context.Context, bucket, key string, data io.Reader, size int64, contentType string) error
	// PublicURL constructs the browser-accessible URL for a given object.
	// Returns "" when bucket or key is empty.
	PublicURL(bucket, key string) string
	// SignedURL returns a time-limited URL for a given object.
	SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	// Remove deletes one object identified by key.
	Remove(ctx context.Context, bucket, key string) error
}
