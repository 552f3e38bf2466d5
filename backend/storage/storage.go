package storage

import (
	"context"
	"errors"
	"io"

	"ieltsprep/backend/config"
)

// ErrNotFound is returned when no object exists under a key.
var ErrNotFound = errors.New("object not found")

// Storage holds uploaded source documents.
type Storage interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// New builds the backend selected by STORAGE_BACKEND.
func New(cfg *config.Config) (Storage, error) {
	if cfg.StorageBackend == "s3" {
		return NewS3Storage(cfg)
	}
	return NewLocalStorage(cfg.UploadDir)
}
