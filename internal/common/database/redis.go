// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"cx-agent-builder/internal/common/config"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPoolSize  = 10
	defaultRedisOpTimeout = 3 * time.Second
)

// RedisClient holds the connection pool backing the response cache.
type RedisClient struct {
	rdb *redis.Client
}

func NewRedis(cfg config.RedisConfig) *RedisClient {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = defaultRedisPoolSize
	}

	return &RedisClient{rdb: redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  defaultRedisOpTimeout,
		WriteTimeout: defaultRedisOpTimeout,
		PoolSize:     poolSize,
		MinIdleConns: poolSize / 5,
	})}
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed at %s: %w", c.rdb.Options().Addr, err)
	}
	return nil
}

// Cmdable exposes the command surface the cache needs without leaking
// pool management to callers.
func (c *RedisClient) Cmdable() redis.Cmdable {
	return c.rdb
}

func (c *RedisClient) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
