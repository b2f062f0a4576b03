package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Read when the key does not exist.
var ErrNotFound = errors.New("storage: object not found")

// Storage defines the blob operations the history document needs.
type Storage interface {
	// Write stores content from the reader with the given key, replacing any
	// previous content. The size parameter is the expected content size
	// (-1 if unknown).
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Read retrieves content for the given key.
	// The caller is responsible for closing the returned ReadCloser.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if content with the given key exists.
	Exists(ctx context.Context, key string) (bool, error)
}

// Config selects and configures a Storage backend.
type Config struct {
	Type  string      `mapstructure:"type"` // "local" or "s3"
	Local LocalConfig `mapstructure:"local"`
	S3    S3Config    `mapstructure:"s3"`
}

// New builds the backend named by cfg.Type.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg.Local)
	case "s3":
		return NewS3Storage(ctx, cfg.S3)
	default:
		return nil, errors.New("storage: unknown type " + cfg.Type)
	}
}
