package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage implements Storage using a MinIO (or any S3-compatible) backend.
// The underlying client is created lazily on first use, so a missing
// STORAGE_* configuration does not prevent startup — it surfaces as
// ErrNotConfigured from the first storage operation instead.
type MinioStorage struct {
	endpoint  string
	accessKey string
	secretKey string
	useSSL    bool

	once      sync.Once
	client    *minio.Client
	clientErr error
}

// NewMinioStorage returns a MinioStorage bound to the given endpoint and
// credentials. No network call is made here; connectivity and credential
// problems show up on the first operation.
func NewMinioStorage(endpoint, accessKey, secretKey string, useSSL bool) *MinioStorage {
	return &MinioStorage{
		endpoint:  endpoint,
		accessKey: accessKey,
		secretKey: secretKey,
		useSSL:    useSSL,
	}
}

func (s *MinioStorage) getClient() (*minio.Client, error) {
	s.once.Do(func() {
		if s.endpoint == "" || s.accessKey == "" || s.secretKey == "" {
			s.clientErr = ErrNotConfigured
			return
		}
		client, err := minio.New(s.endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(s.accessKey, s.secretKey, ""),
			Secure: s.useSSL,
		})
		if err != nil {
			s.clientErr = fmt.Errorf("create minio client: %w", err)
			return
		}
		s.client = client
	})
	return s.client, s.clientErr
}

// Upload streams data to the store under key. size must be the exact byte
// count (pass -1 only if the size is genuinely unknown — MinIO will buffer it).
func (s *MinioStorage) Upload(ctx context.Context, bucket, key string, data io.Reader, size int64, contentType string) error {
	client, err := s.getClient()
	if err != nil {
		return err
	}
	_, err = client.PutObject(ctx, bucket, key, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

// PublicURL returns the browser-accessible URL for the given object,
// e.g. "http://localhost:9000/reports-images/images/uuid.jpg".
// Returns "" when bucket or key is empty or no endpoint is configured.
func (s *MinioStorage) PublicURL(bucket, key string) string {
	if s.endpoint == "" || bucket == "" || key == "" {
		return ""
	}
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, bucket, key)
}

// SignedURL returns a presigned GET URL valid for ttl.
func (s *MinioStorage) SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	client, err := s.getClient()
	if err != nil {
		return "", err
	}
	u, err := client.PresignedGetObject(ctx, bucket, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presign object %q: %w", key, err)
	}
	return u.String(), nil
}

// Remove deletes the object at key from the bucket.
func (s *MinioStorage) Remove(ctx context.Context, bucket, key string) error {
	client, err := s.getClient()
	if err != nil {
		return err
	}
	if err := client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %q: %w", key, err)
	}
	return nil
}
