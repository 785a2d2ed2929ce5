package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

var (
	redisMu     sync.RWMutex
	redisClient *redis.Client
)

// InitRedis dials Redis and keeps the client for RedisClient.
func InitRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	redisMu.Lock()
	redisClient = rdb
	redisMu.Unlock()
	return rdb, nil
}

// RedisClient returns the client set by InitRedis, or nil.
func RedisClient() *redis.Client {
	redisMu.RLock()
	defer redisMu.RUnlock()
	return redisClient
}
