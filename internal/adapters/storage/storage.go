// Package storage provides S3-compatible object storage for trip report files.
package storage

import (
	"context"
	"io"
	"time"
)

// PresignedURL is a time-limited download link for a stored object.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"file_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ObjectStore is the storage surface the reports module depends on.
type ObjectStore interface {
	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error

	// Upload writes the object under a unique key inside folder and
	// returns the full file key.
	Upload(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)

	// Download opens the object for reading. The caller closes the reader.
	Download(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error)

	// PresignDownload creates a time-limited download URL for the object.
	PresignDownload(ctx context.Context, bucket, fileKey string) (*PresignedURL, error)

	// Delete removes the object.
	Delete(ctx context.Context, bucket, fileKey string) error

	// ValidateContentType checks that the MIME type is allowed for reports.
	ValidateContentType(contentType string) error

	// ValidateFileSize checks the size against the configured limit.
	ValidateFileSize(sizeBytes int64) error
}

// Config defines the configuration surface for the MinIO client.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	IsMinIOEnabled() bool
}
