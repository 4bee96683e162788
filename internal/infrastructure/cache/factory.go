package cache

import (
	"fmt"
	"time"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/infrastructure/config"
	"go.uber.org/zap"
)

// GoodsReaderFactory builds the cached goods reader from configuration
type GoodsReaderFactory struct {
	redisConfig           config.RedisConfig
	ttl                   time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// GoodsReaderFactoryOption is a functional option for configuring the factory
type GoodsReaderFactoryOption func(*GoodsReaderFactory)

// WithLogger sets the logger for the factory and the caches it builds
func WithLogger(logger *zap.Logger) GoodsReaderFactoryOption {
	return func(f *GoodsReaderFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to L1 only.
// Default is true.
func WithInMemoryFallback(allow bool) GoodsReaderFactoryOption {
	return func(f *GoodsReaderFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewGoodsReaderFactory creates a new factory
func NewGoodsReaderFactory(cfg config.RedisConfig, ttl time.Duration, opts ...GoodsReaderFactoryOption) *GoodsReaderFactory {
	f := &GoodsReaderFactory{
		redisConfig:           cfg,
		ttl:                   ttl,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CachedGoodsReader is a tiered goods reader together with the caches it owns
type CachedGoodsReader struct {
	*TieredGoodsReader
	l1 *InMemoryGoodsCache
	l2 *RedisGoodsCache
}

// Close releases the cache tiers
func (c *CachedGoodsReader) Close() error {
	_ = c.l1.Close()
	if c.l2 != nil {
		return c.l2.Close()
	}
	return nil
}

// Create wraps source with an in-memory tier and, when Redis is enabled and
// reachable, a Redis tier.
func (f *GoodsReaderFactory) Create(source costing.GoodsReader) (*CachedGoodsReader, error) {
	l1 := NewInMemoryGoodsCache(WithInMemoryTTL(f.ttl), WithInMemoryLogger(f.logger))
	out := &CachedGoodsReader{l1: l1}

	var opts []TieredGoodsReaderOption
	opts = append(opts, WithTieredLogger(f.logger))

	if f.redisConfig.Enabled {
		l2, err := NewRedisGoodsCache(RedisConfig{
			Host:     f.redisConfig.Host,
			Port:     f.redisConfig.Port,
			Password: f.redisConfig.Password,
			DB:       f.redisConfig.DB,
		}, WithRedisTTL(f.ttl), WithRedisLogger(f.logger))
		switch {
		case err == nil:
			f.logger.Info("using Redis goods cache", zap.String("addr", f.redisConfig.Addr()))
			out.l2 = l2
			opts = append(opts, WithL2(l2))
		case !f.allowInMemoryFallback:
			_ = l1.Close()
			return nil, fmt.Errorf("Redis required for goods cache but unavailable: %w", err)
		default:
			f.logger.Warn("Redis unavailable, goods cache runs in-memory only. "+
				"Goods changes made by other instances show up after the cache TTL.",
				zap.Error(err),
			)
		}
	}

	out.TieredGoodsReader = NewTieredGoodsReader(source, l1, opts...)
	return out, nil
}
