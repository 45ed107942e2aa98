// Package memory keeps uploads in process memory. Used by tests and by
// MEDIA_BACKEND=memory for throwaway environments.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/storage"
)

// File is a stored upload.
type File struct {
	Key         string
	ContentType string
	Data        []byte
	URL         string
}

// Storage implements storage.Storage using a map guarded by a mutex.
type Storage struct {
	mu      sync.RWMutex
	files   map[string]*File
	baseURL string
	failErr error
}

// New creates an empty Storage serving URLs under baseURL.
func New(baseURL string) *Storage {
	return &Storage{files: make(map[string]*File), baseURL: baseURL}
}

// FailWith makes every later Upload return err. Pass nil to recover.
func (s *Storage) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

// Upload reads the whole input and keeps it.
func (s *Storage) Upload(_ context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	if err := storage.ValidateKey(input.Key); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, input.Data); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failErr != nil {
		return nil, s.failErr
	}

	url := storage.JoinURL(s.baseURL, input.Key)
	s.files[input.Key] = &File{
		Key:         input.Key,
		ContentType: input.ContentType,
		Data:        buf.Bytes(),
		URL:         url,
	}
	return &storage.UploadResult{Key: input.Key, URL: url}, nil
}

// Delete removes a file.
func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[key]; !ok {
		return fmt.Errorf("file not found: %s", key)
	}
	delete(s.files, key)
	return nil
}

// GetURL returns the URL for the given key.
func (s *Storage) GetURL(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[key]
	if !ok {
		return "", fmt.Errorf("file not found: %s", key)
	}
	return f.URL, nil
}

// Get returns a stored file.
func (s *Storage) Get(key string) (*File, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[key]
	return f, ok
}

// Len is the number of stored files.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
