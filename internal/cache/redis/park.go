package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
)

const keyPrefix = "park:"

// ParkCache is a read-through cache of parks and their rating summaries.
type ParkCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewParkCache creates a Redis-backed park cache.
func NewParkCache(client *redis.Client, ttl time.Duration) *ParkCache {
	return &ParkCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached park. found is false on a miss.
func (c *ParkCache) Get(ctx context.Context, parkID string) (park *domain.Park, found bool, err error) {
	data, err := c.client.Get(ctx, keyPrefix+parkID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get park: %w", err)
	}

	var p domain.Park
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false, fmt.Errorf("unmarshal park: %w", err)
	}
	return &p, true, nil
}

// Set caches a park with the configured TTL.
func (c *ParkCache) Set(ctx context.Context, park *domain.Park) error {
	data, err := json.Marshal(park)
	if err != nil {
		return fmt.Errorf("marshal park: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+park.ID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set park: %w", err)
	}
	return nil
}

// Invalidate drops the cached park. Missing keys are not an error.
func (c *ParkCache) Invalidate(ctx context.Context, parkID string) error {
	if err := c.client.Del(ctx, keyPrefix+parkID).Err(); err != nil {
		return fmt.Errorf("redis del park: %w", err)
	}
	return nil
}
