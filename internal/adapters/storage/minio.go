package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedURLTTL is the expiration of presigned download URLs.
const PresignedURLTTL = 15 * time.Minute

// allowedContentTypes lists the MIME types accepted for trip report uploads.
var allowedContentTypes = map[string]bool{
	"application/pdf":  true,
	"application/json": true,
	"text/plain":       true,
	"text/markdown":    true,
	"text/csv":         true,
	"text/html":        true,
	"image/jpeg":       true,
	"image/png":        true,
	"image/webp":       true,
}

// MinIOStore implements ObjectStore on MinIO.
type MinIOStore struct {
	client      *minio.Client
	maxFileSize int64
}

var _ ObjectStore = (*MinIOStore)(nil)

// NewMinIOStore creates a MinIO-backed object store.
func NewMinIOStore(cfg Config) (*MinIOStore, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("minio is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinIOStore{
		client:      client,
		maxFileSize: cfg.GetMinIOMaxFileSize(),
	}, nil
}

// EnsureBucketExists creates the bucket if it doesn't exist.
func (s *MinIOStore) EnsureBucketExists(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return nil
}

// Upload writes the object under a unique key. A short UUID suffix on the
// file name prevents overwrites between reports with the same name.
func (s *MinIOStore) Upload(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	ext := path.Ext(fileName)
	baseName := strings.TrimSuffix(fileName, ext)
	uniqueName := fmt.Sprintf("%s_%s%s", baseName, uuid.New().String()[:8], ext)
	fileKey := filepath.ToSlash(filepath.Join(folder, uniqueName))

	_, err := s.client.PutObject(ctx, bucket, fileKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload object %s: %w", fileKey, err)
	}
	return fileKey, nil
}

// Download opens the object for reading.
func (s *MinIOStore) Download(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, bucket, fileKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", fileKey, err)
	}
	return obj, nil
}

// PresignDownload creates a time-limited download URL.
func (s *MinIOStore) PresignDownload(ctx context.Context, bucket, fileKey string) (*PresignedURL, error) {
	expiresAt := time.Now().Add(PresignedURLTTL)
	presigned, err := s.client.PresignedGetObject(ctx, bucket, fileKey, PresignedURLTTL, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("presign download for %s: %w", fileKey, err)
	}
	return &PresignedURL{
		URL:       presigned.String(),
		FileKey:   fileKey,
		ExpiresAt: expiresAt,
	}, nil
}

// Delete removes the object.
func (s *MinIOStore) Delete(ctx context.Context, bucket, fileKey string) error {
	if err := s.client.RemoveObject(ctx, bucket, fileKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %s: %w", fileKey, err)
	}
	return nil
}

// ValidateContentType checks the MIME type against the report allow-list.
func (s *MinIOStore) ValidateContentType(contentType string) error {
	normalized := strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
	if !allowedContentTypes[normalized] {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

// ValidateFileSize checks the size against the configured limit.
func (s *MinIOStore) ValidateFileSize(sizeBytes int64) error {
	if sizeBytes <= 0 {
		return fmt.Errorf("file size must be greater than 0")
	}
	if sizeBytes > s.maxFileSize {
		return fmt.Errorf("file size %d bytes exceeds maximum of %d bytes", sizeBytes, s.maxFileSize)
	}
	return nil
}
