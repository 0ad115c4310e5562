// Package storage persists workspace assets (logos) in an object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/techradar/apiserver/config"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Bucket() string
}

// AssetStore wraps an ObjectStorage backend with workspace asset naming.
type AssetStore struct {
	backend ObjectStorage
}

// NewAssetStore constructs an AssetStore for the backend selected in
// config, or (nil, nil) when no backend is configured.
func NewAssetStore(ctx context.Context, cfg config.StorageConfig) (*AssetStore, error) {
	var backend ObjectStorage
	var err error

	switch cfg.Backend {
	case config.StorageBackendNone:
		return nil, nil
	case config.StorageBackendMinio:
		backend, err = NewMinioClient(cfg.Minio)
	case config.StorageBackendGCS:
		backend, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return &AssetStore{backend: backend}, nil
}

// PutLogo stores a workspace logo and returns its public URL path.
func (s *AssetStore) PutLogo(ctx context.Context, workspaceID, filename, contentType string, r io.Reader, size int64) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	key := fmt.Sprintf("workspaces/%s/logo%s", workspaceID, ext)
	if err := s.backend.Put(ctx, key, r, size, contentType); err != nil {
		return "", err
	}
	return "/" + s.backend.Bucket() + "/" + key, nil
}
