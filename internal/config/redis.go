package config

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Cache is the shared Redis client used for OTPs, OAuth state and rate limits.
var Cache *redis.Client

// InitRedis configures the Redis client and verifies connectivity.
func InitRedis(ctx context.Context, url string) error {
	if url == "" {
		return fmt.Errorf("redis url is required")
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("ping redis: %w", err)
	}

	Cache = client
	return nil
}
