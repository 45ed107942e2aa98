package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/storage"
	apperrors "github.com/tanzil-def/Doctor-Appointment-Backend/pkg/errors"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/httpclient"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func fastClient() *httpclient.Client {
	return httpclient.New(httpclient.Config{
		Timeout:         5 * time.Second,
		MaxRetries:      2,
		RetryWaitMin:    time.Millisecond,
		RetryWaitMax:    5 * time.Millisecond,
		MaxConnsPerHost: 4,
	})
}

func newStorage(t *testing.T, srv *httptest.Server) *Storage {
	t.Helper()
	s, err := New(Config{Endpoint: srv.URL + "/upload", APIKey: "k-123"}, fastClient(), quietLogger())
	require.NoError(t, err)
	return s
}

func TestStorage_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer k-123", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "profiles/a.png", r.FormValue("public_id"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "png-bytes", string(data))
		assert.Equal(t, "a.png", hdr.Filename)
		assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))

		_ = json.NewEncoder(w).Encode(map[string]string{
			"public_id":  "profiles/a.png",
			"secure_url": "https://cdn.example.com/profiles/a.png",
		})
	}))
	defer srv.Close()

	res, err := newStorage(t, srv).Upload(context.Background(), &storage.UploadInput{
		Key:         "profiles/a.png",
		ContentType: "image/png",
		Data:        strings.NewReader("png-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/profiles/a.png", res.URL)
	assert.Equal(t, "profiles/a.png", res.Key)
}

func TestStorage_Upload_RetriesServerErrorWithFullBody(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "doc", string(data))

		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"secure_url": "https://cdn.example.com/d.pdf"})
	}))
	defer srv.Close()

	res, err := newStorage(t, srv).Upload(context.Background(), &storage.UploadInput{
		Key:  "documents/d.pdf",
		Data: strings.NewReader("doc"),
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "documents/d.pdf", res.Key)
}

func TestStorage_Upload_RejectedFileIsInvalidInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid image file"}}`))
	}))
	defer srv.Close()

	_, err := newStorage(t, srv).Upload(context.Background(), &storage.UploadInput{
		Key:  "profiles/x.png",
		Data: strings.NewReader("not-an-image"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "Invalid image file")
}

func TestStorage_Upload_MissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newStorage(t, srv).Upload(context.Background(), &storage.UploadInput{
		Key:  "profiles/x.png",
		Data: strings.NewReader("x"),
	})
	assert.Error(t, err)
}

func TestStorage_Delete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		if r.URL.Path == "/upload/profiles/gone.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := newStorage(t, srv)
	assert.NoError(t, s.Delete(context.Background(), "profiles/a.png"))
	assert.NoError(t, s.Delete(context.Background(), "profiles/gone.png"))
}

func TestStorage_GetURL(t *testing.T) {
	s, err := New(Config{Endpoint: "https://api.example.com/upload", PublicBaseURL: "https://cdn.example.com/"}, fastClient(), quietLogger())
	require.NoError(t, err)

	url, err := s.GetURL(context.Background(), "doctors/d.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/doctors/d.jpg", url)
}

func TestNew_InvalidEndpoint(t *testing.T) {
	_, err := New(Config{Endpoint: "not a url"}, nil, quietLogger())
	assert.Error(t, err)
}
