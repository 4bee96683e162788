package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultGoodsKeyPrefix = "costing:goods:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisGoodsCache stores goods master data in Redis as JSON, shared across instances
type RedisGoodsCache struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	keyPrefix  string
	ttl        time.Duration
	logger     *zap.Logger
}

// RedisGoodsCacheOption is a functional option for configuring the cache
type RedisGoodsCacheOption func(*RedisGoodsCache)

// WithRedisTTL sets the expiry of cached goods
func WithRedisTTL(ttl time.Duration) RedisGoodsCacheOption {
	return func(c *RedisGoodsCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithKeyPrefix sets the key namespace
func WithKeyPrefix(prefix string) RedisGoodsCacheOption {
	return func(c *RedisGoodsCache) {
		if prefix != "" {
			c.keyPrefix = prefix
		}
	}
}

// WithRedisLogger sets the logger for the cache
func WithRedisLogger(logger *zap.Logger) RedisGoodsCacheOption {
	return func(c *RedisGoodsCache) {
		c.logger = logger
	}
}

// NewRedisGoodsCache connects to Redis and creates a goods cache
func NewRedisGoodsCache(cfg RedisConfig, opts ...RedisGoodsCacheOption) (*RedisGoodsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c := NewRedisGoodsCacheWithClient(client, opts...)
	c.ownsClient = true
	return c, nil
}

// NewRedisGoodsCacheWithClient creates a cache on an existing client.
// The caller keeps ownership of the client.
func NewRedisGoodsCacheWithClient(client *redis.Client, opts ...RedisGoodsCacheOption) *RedisGoodsCache {
	c := &RedisGoodsCache{
		client:    client,
		keyPrefix: defaultGoodsKeyPrefix,
		ttl:       defaultGoodsTTL,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisGoodsCache) key(id uuid.UUID) string {
	return c.keyPrefix + id.String()
}

// Get returns the cached goods, or nil on a miss
func (c *RedisGoodsCache) Get(ctx context.Context, id uuid.UUID) (*costing.Goods, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get goods from cache: %w", err)
	}

	var goods costing.Goods
	if err := json.Unmarshal(data, &goods); err != nil {
		c.logger.Warn("Dropping undecodable goods cache entry",
			zap.String("goods_id", id.String()),
			zap.Error(err))
		_ = c.client.Del(ctx, c.key(id)).Err()
		return nil, nil
	}
	return &goods, nil
}

// Set stores the goods with the configured TTL
func (c *RedisGoodsCache) Set(ctx context.Context, goods *costing.Goods) error {
	if goods == nil {
		return nil
	}
	data, err := json.Marshal(goods)
	if err != nil {
		return fmt.Errorf("failed to marshal goods: %w", err)
	}
	if err := c.client.Set(ctx, c.key(goods.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set goods in cache: %w", err)
	}
	return nil
}

// Delete removes the goods from the cache
func (c *RedisGoodsCache) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete goods from cache: %w", err)
	}
	return nil
}

// Close closes the Redis client if the cache created it
func (c *RedisGoodsCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}
