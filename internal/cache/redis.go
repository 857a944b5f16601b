package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "audd:response:"

// ErrMiss is returned by Get when no response is cached for a key.
var ErrMiss = errors.New("cache miss")

// ResponseCache stores raw recognition responses keyed by video slug.
type ResponseCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewResponseCache connects to addr and verifies the connection with a ping.
func NewResponseCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*ResponseCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}

	return &ResponseCache{rdb: rdb, ttl: ttl}, nil
}

func (c *ResponseCache) Get(ctx context.Context, slug string) (string, error) {
	val, err := c.rdb.Get(ctx, Key(slug)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *ResponseCache) Set(ctx context.Context, slug string, response string) error {
	return c.rdb.Set(ctx, Key(slug), response, c.ttl).Err()
}

func (c *ResponseCache) Close() error {
	return c.rdb.Close()
}

func Key(slug string) string {
	return keyPrefix + slug
}
