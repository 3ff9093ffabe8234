package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStorage keeps media files below Root and serves them from BaseURL.
type LocalStorage struct {
	Root    string
	BaseURL string
}

func NewLocalStorage(root, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &LocalStorage{Root: root, BaseURL: baseURL}, nil
}

func (s *LocalStorage) Save(_ context.Context, key string, data []byte, _ string) error {
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}
	target := filepath.Join(s.Root, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create media directory: %w", err)
	}
	return os.WriteFile(target, data, 0o644)
}

// Delete removes the file. Missing files are not an error.
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.Root, filepath.FromSlash(cleaned)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStorage) URL(key string) string {
	return joinURL(s.BaseURL, key)
}
