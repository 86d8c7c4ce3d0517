package gcsuploader

import (
	"context"
)

// StorageService provides cloud storage operations for statement files.
// It lets the CLI be tested without a bucket.
type StorageService interface {
	// UploadFile uploads a local file to a bucket under the given object name.
	UploadFile(ctx context.Context, bucketName, objectName, filePath string) error

	// FetchFromGCS downloads the object bytes for a gs:// URI.
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)

	// DownloadToFile copies the object for a gs:// URI into dir and returns the local path.
	DownloadToFile(ctx context.Context, gcsURI, dir string) (string, error)

	// Close releases the underlying client.
	Close() error
}

var _ StorageService = (*GCSStorageService)(nil)
