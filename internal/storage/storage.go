package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tasklane/apiserver/config"
)

const (
	BackendMinio = "minio"
	BackendGCS   = "gcs"
)

// ObjectStorage is the write side of an object store holding task exports.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Bucket() string
	Close() error
}

// Storage wraps an ObjectStorage backend with a stable API.
type Storage struct {
	backend ObjectStorage
}

func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

// NewFromConfig connects the configured backend and makes sure its bucket
// exists.
func NewFromConfig(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendMinio:
		backend, err = NewMinioClient(cfg.Minio)
	case BackendGCS:
		backend, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	s := NewStorage(backend)
	if err := s.EnsureBucket(ctx); err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return s, nil
}

func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put uploads an object. Keys are relative and must not be empty.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return errors.New("object key is required")
	}
	return s.backend.Put(ctx, key, r, size, contentType)
}

func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

func (s *Storage) Close() error {
	return s.backend.Close()
}
