package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	slotErr := &pgconn.PgError{Code: "23505", ConstraintName: "uq_doctor_slot_active"}
	emailErr := &pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"}
	fkErr := &pgconn.PgError{Code: "23503", ConstraintName: "appointments_doctor_id_fkey"}

	assert.True(t, IsUniqueViolation(slotErr))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", slotErr), "uq_doctor_slot_active"))
	assert.False(t, IsUniqueViolation(emailErr, "uq_doctor_slot_active"))
	assert.False(t, IsUniqueViolation(fkErr))
	assert.False(t, IsUniqueViolation(errors.New("23505")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestBackoff_Bounds(t *testing.T) {
	base := 100 * time.Millisecond
	for attempt := 0; attempt < 3; attempt++ {
		want := base << attempt
		lo := want * 3 / 4
		hi := want * 5 / 4
		for i := 0; i < 20; i++ {
			d := backoff(base, attempt)
			assert.GreaterOrEqual(t, d, lo)
			assert.LessOrEqual(t, d, hi)
		}
	}
	assert.True(t, backoff(base, -1) > 0)
}

func TestDefaultPostgresConfig(t *testing.T) {
	cfg := DefaultPostgresConfig("postgres://u:p@localhost:5432/booking")
	assert.Equal(t, "postgres://u:p@localhost:5432/booking", cfg.URL)
	assert.Equal(t, int32(10), cfg.MaxConns)
	assert.Equal(t, 5, cfg.ConnectAttempts)
}

func TestPoolConfig(t *testing.T) {
	pc, err := DefaultPostgresConfig("postgres://u:p@localhost:5432/booking").poolConfig()
	require.NoError(t, err)
	assert.Equal(t, int32(10), pc.MaxConns)
	assert.Equal(t, int32(1), pc.MinConns)
	assert.Equal(t, 45*time.Minute, pc.MaxConnLifetime)

	bare := PostgresConfig{URL: "postgres://u:p@localhost:5432/booking?pool_max_conns=3"}
	pc, err = bare.poolConfig()
	require.NoError(t, err)
	assert.Equal(t, int32(3), pc.MaxConns)

	_, err = PostgresConfig{URL: "postgres://u:p@localhost:notaport/booking"}.poolConfig()
	assert.Error(t, err)
}

func TestNewPostgresPool_GivesUp(t *testing.T) {
	cfg := PostgresConfig{
		URL:             "postgres://u:p@127.0.0.1:1/booking?connect_timeout=1",
		ConnectAttempts: 2,
		ConnectBackoff:  time.Millisecond,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewPostgresPool(context.Background(), cfg, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gave up after 2 attempts")
}
