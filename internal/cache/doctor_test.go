package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/pagination"
)

func setupCache(t *testing.T) (*DoctorCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewDoctorCache(client, 5*time.Minute), mr
}

func samplePage() *DoctorPage {
	return &DoctorPage{
		Doctors: []domain.PublicDoctor{{ID: "doc-1", Name: "Dr. Rahman", Speciality: "Cardiology"}},
		Total:   1,
	}
}

var firstPage = pagination.Params{Page: 1, PerPage: 20}

func TestDoctorCache_MissThenHit(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "", firstPage)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "", firstPage, samplePage()))

	page, ok, err := c.Get(ctx, "", firstPage)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "Dr. Rahman", page.Doctors[0].Name)
}

func TestDoctorCache_KeyedBySpecialityAndPage(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "Cardiology", firstPage, samplePage()))

	_, ok, _ := c.Get(ctx, "cardiology ", firstPage)
	assert.True(t, ok)
	_, ok, _ = c.Get(ctx, "Dermatology", firstPage)
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "Cardiology", pagination.Params{Page: 2, PerPage: 20})
	assert.False(t, ok)
}

func TestDoctorCache_Invalidate(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "", firstPage, samplePage()))
	require.NoError(t, c.Invalidate(ctx))

	_, ok, err := c.Get(ctx, "", firstPage)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDoctorCache_TTL(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "", firstPage, samplePage()))
	mr.FastForward(6 * time.Minute)

	_, ok, err := c.Get(ctx, "", firstPage)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDoctorCache_RedisDown(t *testing.T) {
	c, mr := setupCache(t)
	mr.Close()

	_, ok, err := c.Get(context.Background(), "", firstPage)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestDoctorCache_DisabledWithoutClient(t *testing.T) {
	c := NewDoctorCache(nil, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "", firstPage, samplePage()))
	_, ok, err := c.Get(ctx, "", firstPage)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Invalidate(ctx))
}
