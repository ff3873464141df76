package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zosarillana/prs-be/internal/application/port"
)

// RedisConfig holds the connection settings of RedisCache
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisCache implements port.Cache on Redis. Keys are namespaced by a
// generation counter; InvalidateAll bumps the counter so older keys are never
// read again and expire on their own TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisClient opens a client for cfg
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisCache wraps client; prefix defaults to "prs"
func NewRedisCache(client *redis.Client, prefix string, logger *zap.Logger) *RedisCache {
	if prefix == "" {
		prefix = "prs"
	}
	return &RedisCache{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (c *RedisCache) generationKey() string {
	return c.prefix + ":cache:generation"
}

func (c *RedisCache) key(ctx context.Context, key string) (string, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("failed to read cache generation: %w", err)
	}
	return fmt.Sprintf("%s:cache:%d:%s", c.prefix, gen, key), nil
}

// Get implements port.Cache
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	full, err := c.key(ctx, key)
	if err != nil {
		return nil, false, err
	}

	val, err := c.client.Get(ctx, full).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache: %w", err)
	}
	return val, true, nil
}

// Set implements port.Cache
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	full, err := c.key(ctx, key)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, full, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// InvalidateAll implements port.Cache
func (c *RedisCache) InvalidateAll(ctx context.Context) error {
	gen, err := c.client.Incr(ctx, c.generationKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	c.logger.Debug("Cache generation bumped", zap.Int64("generation", gen))
	return nil
}

// Ping checks connectivity
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the client
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ port.Cache = (*RedisCache)(nil)
