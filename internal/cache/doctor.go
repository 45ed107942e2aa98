// Package cache holds the Redis read-through cache for the public doctor
// directory.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/pagination"
)

const (
	keyPrefix     = "doctors:public:"
	generationKey = keyPrefix + "gen"
)

// DoctorPage is one cached page of the public directory.
type DoctorPage struct {
	Doctors []domain.PublicDoctor `json:"doctors"`
	Total   int                   `json:"total"`
}

// DoctorCache caches public directory pages. Invalidation bumps a generation
// counter that is part of every page key, so stale pages are never read and
// simply expire.
type DoctorCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDoctorCache creates a DoctorCache. A nil client disables caching.
func NewDoctorCache(client *redis.Client, ttl time.Duration) *DoctorCache {
	return &DoctorCache{client: client, ttl: ttl}
}

// Get returns a cached page. ok is false on a miss or when caching is off.
func (c *DoctorCache) Get(ctx context.Context, speciality string, params pagination.Params) (_ *DoctorPage, ok bool, err error) {
	if c.client == nil {
		return nil, false, nil
	}

	key, err := c.pageKey(ctx, speciality, params)
	if err != nil {
		return nil, false, err
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get doctor page: %w", err)
	}

	var page DoctorPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, false, fmt.Errorf("unmarshal doctor page: %w", err)
	}
	return &page, true, nil
}

// Set stores a page with the configured TTL.
func (c *DoctorCache) Set(ctx context.Context, speciality string, params pagination.Params, page *DoctorPage) error {
	if c.client == nil {
		return nil
	}

	key, err := c.pageKey(ctx, speciality, params)
	if err != nil {
		return err
	}

	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshal doctor page: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set doctor page: %w", err)
	}
	return nil
}

// Invalidate makes every cached page unreachable.
func (c *DoctorCache) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("redis bump doctor cache generation: %w", err)
	}
	return nil
}

func (c *DoctorCache) pageKey(ctx context.Context, speciality string, params pagination.Params) (string, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("redis get doctor cache generation: %w", err)
	}
	return fmt.Sprintf("%sv%d:%s:%d:%d", keyPrefix, gen,
		strings.ToLower(strings.TrimSpace(speciality)), params.Page, params.PerPage), nil
}
