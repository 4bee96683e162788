package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultCleanupInterval = 30 * time.Second
	defaultGoodsTTL        = 5 * time.Minute
)

// InMemoryGoodsCache keeps goods master data in process memory.
// It is meant as the L1 tier in front of Redis.
type InMemoryGoodsCache struct {
	entries sync.Map // map[uuid.UUID]*cacheEntry[costing.Goods]
	ttl     time.Duration
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped int32

	hits   int64
	misses int64
}

// cacheEntry wraps a cached value with expiration time
type cacheEntry[T any] struct {
	value     *T
	expiresAt time.Time
}

func (e *cacheEntry[T]) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryGoodsCacheOption is a functional option for configuring the cache
type InMemoryGoodsCacheOption func(*InMemoryGoodsCache)

// WithInMemoryTTL sets how long entries stay valid
func WithInMemoryTTL(ttl time.Duration) InMemoryGoodsCacheOption {
	return func(c *InMemoryGoodsCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryGoodsCacheOption {
	return func(c *InMemoryGoodsCache) {
		c.logger = logger
	}
}

// NewInMemoryGoodsCache creates a new in-memory goods cache and starts its
// cleanup goroutine. Call Close to stop it.
func NewInMemoryGoodsCache(opts ...InMemoryGoodsCacheOption) *InMemoryGoodsCache {
	cache := &InMemoryGoodsCache{
		ttl:    defaultGoodsTTL,
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(cache)
	}

	go cache.cleanupExpired()

	return cache
}

// Get returns a copy of the cached goods, or nil on a miss
func (c *InMemoryGoodsCache) Get(_ context.Context, id uuid.UUID) (*costing.Goods, error) {
	v, ok := c.entries.Load(id)
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, nil
	}
	entry := v.(*cacheEntry[costing.Goods])
	if entry.isExpired() {
		c.entries.Delete(id)
		atomic.AddInt64(&c.misses, 1)
		return nil, nil
	}
	atomic.AddInt64(&c.hits, 1)
	return cloneGoods(entry.value), nil
}

// Set stores a copy of the goods
func (c *InMemoryGoodsCache) Set(_ context.Context, goods *costing.Goods) error {
	if goods == nil {
		return nil
	}
	c.entries.Store(goods.ID, &cacheEntry[costing.Goods]{
		value:     cloneGoods(goods),
		expiresAt: time.Now().Add(c.ttl),
	})
	return nil
}

// Delete removes the goods from the cache
func (c *InMemoryGoodsCache) Delete(_ context.Context, id uuid.UUID) error {
	c.entries.Delete(id)
	return nil
}

// Clear removes every entry
func (c *InMemoryGoodsCache) Clear() {
	c.entries.Range(func(key, _ any) bool {
		c.entries.Delete(key)
		return true
	})
}

// Count returns the number of entries in the cache, expired ones included
func (c *InMemoryGoodsCache) Count() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// GetStats returns cache statistics
func (c *InMemoryGoodsCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Close stops the cleanup goroutine
func (c *InMemoryGoodsCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

func (c *InMemoryGoodsCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						c.logger.Error("Panic in goods cache cleanup", zap.Any("panic", r))
					}
				}()
				c.doCleanup()
			}()
		}
	}
}

func (c *InMemoryGoodsCache) doCleanup() {
	removed := 0
	c.entries.Range(func(key, value any) bool {
		if value.(*cacheEntry[costing.Goods]).isExpired() {
			c.entries.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		c.logger.Debug("Cleaned up expired goods cache entries", zap.Int("removed", removed))
	}
}

func cloneGoods(g *costing.Goods) *costing.Goods {
	cp := *g
	if g.Precision != nil {
		p := *g.Precision
		cp.Precision = &p
	}
	return &cp
}
