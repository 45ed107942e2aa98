// Package local stores media on the local filesystem. Files are served
// back by the /media route.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/storage"
)

// Storage implements storage.Storage on a directory.
type Storage struct {
	root    string
	baseURL string
}

// New creates the root directory if needed.
func New(root, baseURL string) (*Storage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Storage{root: root, baseURL: baseURL}, nil
}

// Root is the directory files are written to.
func (s *Storage) Root() string {
	return s.root
}

// Upload writes the file atomically: data goes to a temp file that is
// renamed into place once complete.
func (s *Storage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	if err := storage.ValidateKey(input.Key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dst := filepath.Join(s.root, filepath.FromSlash(input.Key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("create media folder: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, input.Data); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("write media file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close media file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return nil, fmt.Errorf("move media file: %w", err)
	}

	return &storage.UploadResult{Key: input.Key, URL: storage.JoinURL(s.baseURL, input.Key)}, nil
}

// Delete removes the file. A missing file is not an error.
func (s *Storage) Delete(_ context.Context, key string) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete media file: %w", err)
	}
	return nil
}

// GetURL returns the public URL of key.
func (s *Storage) GetURL(_ context.Context, key string) (string, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", err
	}
	return storage.JoinURL(s.baseURL, key), nil
}
