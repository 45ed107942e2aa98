package database

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig holds the connection URL, pool sizing and the retry policy
// for the first connect. Zero sizes keep pgxpool's defaults or whatever the
// URL's pool_* parameters say.
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ConnectAttempts int
	ConnectBackoff  time.Duration
}

// DefaultPostgresConfig sizes the pool for a single API instance and waits
// roughly eight seconds in total for the database to come up.
func DefaultPostgresConfig(url string) PostgresConfig {
	return PostgresConfig{
		URL:             url,
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: 45 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
		ConnectAttempts: 5,
		ConnectBackoff:  500 * time.Millisecond,
	}
}

func (c PostgresConfig) poolConfig() (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	if c.MaxConns > 0 {
		pc.MaxConns = c.MaxConns
	}
	if c.MinConns > 0 {
		pc.MinConns = c.MinConns
	}
	if c.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = c.MaxConnLifetime
	}
	if c.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = c.MaxConnIdleTime
	}
	return pc, nil
}

// backoff doubles base per attempt and spreads the result by ±25%.
func backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := base << attempt
	return d + time.Duration(float64(d)*0.25*(2*rand.Float64()-1)) // #nosec G404 -- jitter only
}

// NewPostgresPool connects and pings, retrying while the database is not yet
// accepting connections.
func NewPostgresPool(ctx context.Context, cfg PostgresConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	pc, err := cfg.poolConfig()
	if err != nil {
		return nil, err
	}

	attempts := max(cfg.ConnectAttempts, 1)
	for attempt := 1; ; attempt++ {
		pool, err := connect(ctx, pc)
		if err == nil {
			return pool, nil
		}
		if attempt == attempts {
			return nil, fmt.Errorf("connect postgres: gave up after %d attempts: %w", attempts, err)
		}

		wait := backoff(cfg.ConnectBackoff, attempt-1)
		logger.Warn("postgres not ready",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("retry_in", wait),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect postgres: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
}

func connect(ctx context.Context, pc *pgxpool.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
