package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/storage"
)

func TestStorage_Lifecycle(t *testing.T) {
	s := New("/media")
	ctx := context.Background()

	res, err := s.Upload(ctx, &storage.UploadInput{Key: "documents/a.pdf", ContentType: "application/pdf", Data: strings.NewReader("pdf")})
	require.NoError(t, err)
	assert.Equal(t, "/media/documents/a.pdf", res.URL)

	f, ok := s.Get("documents/a.pdf")
	require.True(t, ok)
	assert.Equal(t, "pdf", string(f.Data))

	url, err := s.GetURL(ctx, "documents/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, res.URL, url)

	require.NoError(t, s.Delete(ctx, "documents/a.pdf"))
	assert.Equal(t, 0, s.Len())
	assert.Error(t, s.Delete(ctx, "documents/a.pdf"))
}

func TestStorage_FailWith(t *testing.T) {
	s := New("/media")
	s.FailWith(errors.New("disk full"))

	_, err := s.Upload(context.Background(), &storage.UploadInput{Key: "profiles/a.png", Data: strings.NewReader("x")})
	assert.EqualError(t, err, "disk full")
	assert.Equal(t, 0, s.Len())
}
