package media

import (
	"context"
	"fmt"

	"foodgram/internal/config"
)

// Open returns the storage backend selected by cfg.
func Open(ctx context.Context, cfg config.MediaConfig) (Storage, error) {
	switch cfg.Backend {
	case config.MediaBackendLocal, "":
		return NewLocalStorage(cfg.Root, cfg.BaseURL)
	case config.MediaBackendS3:
		return NewS3Storage(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown media backend: %q", cfg.Backend)
	}
}
