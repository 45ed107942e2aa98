// Package remote uploads media to an HTTP media host with a multipart API
// (Cloudinary style): POST {endpoint} with a "file" part and a "public_id"
// field, answered by {"public_id": "...", "secure_url": "..."}.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/storage"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/httpclient"
)

const upstreamName = "media host"

// Doer is satisfied by httpclient.CircuitBreakerClient.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Config points the backend at the media host.
type Config struct {
	Endpoint string
	APIKey   string
	// PublicBaseURL is used by GetURL. Defaults to Endpoint.
	PublicBaseURL string
}

// Storage implements storage.Storage against a remote media host.
type Storage struct {
	client Doer
	cfg    Config
	logger *slog.Logger
}

// New creates a remote Storage. When client is nil a retrying client behind
// a circuit breaker is built.
func New(cfg Config, client Doer, logger *slog.Logger) (*Storage, error) {
	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid media endpoint: %w", err)
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = cfg.Endpoint
	}
	if client == nil {
		client = httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			httpclient.DefaultCircuitBreakerConfig("media-host"),
			logger,
		)
	}
	return &Storage{client: client, cfg: cfg, logger: logger}, nil
}

type uploadResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
}

// Upload buffers the file so a retried attempt can resend it, then posts it.
func (s *Storage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	if err := storage.ValidateKey(input.Key); err != nil {
		return nil, err
	}

	body, contentType, err := multipartBody(input)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	s.authorize(req)

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", input.Key, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httpclient.ParseResponseError(resp, upstreamName)
	}
	defer func() { _ = resp.Body.Close() }()

	var out uploadResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}

	link := out.SecureURL
	if link == "" {
		link = out.URL
	}
	if link == "" {
		return nil, fmt.Errorf("upload response for %s carries no url", input.Key)
	}
	key := input.Key
	if out.PublicID != "" {
		key = out.PublicID
	}

	s.logger.DebugContext(ctx, "media uploaded",
		slog.String("key", key),
		slog.Int("bytes", len(body)),
	)
	return &storage.UploadResult{Key: key, URL: link}, nil
}

// Delete issues DELETE {endpoint}/{key}. A 404 counts as deleted.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, storage.JoinURL(s.cfg.Endpoint, key), http.NoBody)
	if err != nil {
		return fmt.Errorf("create delete request: %w", err)
	}
	s.authorize(req)

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	if resp.StatusCode == http.StatusNotFound || (resp.StatusCode >= 200 && resp.StatusCode <= 299) {
		_ = resp.Body.Close()
		return nil
	}
	return httpclient.ParseResponseError(resp, upstreamName)
}

// GetURL returns the public URL of key.
func (s *Storage) GetURL(_ context.Context, key string) (string, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", err
	}
	return storage.JoinURL(s.cfg.PublicBaseURL, key), nil
}

func (s *Storage) authorize(req *http.Request) {
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}
}

func multipartBody(input *storage.UploadInput) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("public_id", input.Key); err != nil {
		return nil, "", fmt.Errorf("write public_id: %w", err)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, path.Base(input.Key)))
	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, input.Data); err != nil {
		return nil, "", fmt.Errorf("buffer upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
