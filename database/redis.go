package database

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// NewRedisClient returns a client for redisURL, or nil when no URL is set.
// An unreachable server is logged and the client kept; reads then miss.
func NewRedisClient(redisURL string) *redis.Client {
	if redisURL == "" {
		zap.L().Info("REDIS_URL not set, response caching disabled")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		zap.L().Warn("Failed to parse REDIS_URL, falling back to default", zap.Error(err))
		opts = &redis.Options{Addr: "redis:6379", DB: 0}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		zap.L().Warn("Redis not reachable, cache lookups will miss", zap.Error(err))
	} else {
		zap.L().Info("Connected to Redis", zap.String("addr", opts.Addr))
	}
	return client
}
