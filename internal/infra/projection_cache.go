package infra

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProjectionCache stores computed projections in Redis as JSON. Every call
// goes through the circuit breaker; a miss is not a failure.
type ProjectionCache struct {
	rdb *redis.Client
	cb  *CircuitBreaker
	ttl time.Duration
}

func NewProjectionCache(rdb *redis.Client, cb *CircuitBreaker, ttl time.Duration) *ProjectionCache {
	return &ProjectionCache{rdb: rdb, cb: cb, ttl: ttl}
}

// Get decodes the cached value for key into dst and reports whether it was found.
func (c *ProjectionCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	var raw []byte
	err := c.cb.Execute(func() error {
		b, err := c.rdb.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		raw = b
		return err
	})
	if err != nil || raw == nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *ProjectionCache) Set(ctx context.Context, key string, v any) error {
	if c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.cb.Execute(func() error {
		return c.rdb.Set(ctx, key, data, c.ttl).Err()
	})
}

// Breaker exposes the breaker state for /health.
func (c *ProjectionCache) Breaker() *CircuitBreaker { return c.cb }
