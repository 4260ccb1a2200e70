package config

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// InitRedis connects to Redis when REDIS_HOST is configured. A nil client means no Redis.
func InitRedis(ctx context.Context, config Config) (*redis.Client, error) {
	addr := config.GetRedisConnString()
	if addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    config.RedisPassword,
		DB:          config.RedisDB,
		DialTimeout: 5 * time.Second,
	})

	// Connectivity check
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	return client, nil
}
