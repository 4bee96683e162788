package cache

import (
	"context"
	"sync/atomic"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GoodsCache is one tier of the goods cache. Get returns nil, nil on a miss.
type GoodsCache interface {
	Get(ctx context.Context, id uuid.UUID) (*costing.Goods, error)
	Set(ctx context.Context, goods *costing.Goods) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TieredGoodsReader reads goods through two cache tiers before the source.
// L1: in-memory, local to the instance
// L2: Redis, shared across instances (optional)
// Cache failures are logged and never fail a read.
type TieredGoodsReader struct {
	source costing.GoodsReader
	l1     GoodsCache
	l2     GoodsCache
	logger *zap.Logger

	l1Hits   int64
	l2Hits   int64
	misses   int64
	failures int64
}

// TieredGoodsReaderOption is a functional option for configuring the reader
type TieredGoodsReaderOption func(*TieredGoodsReader)

// WithL2 adds a shared second tier
func WithL2(l2 GoodsCache) TieredGoodsReaderOption {
	return func(r *TieredGoodsReader) {
		r.l2 = l2
	}
}

// WithTieredLogger sets the logger for the reader
func WithTieredLogger(logger *zap.Logger) TieredGoodsReaderOption {
	return func(r *TieredGoodsReader) {
		r.logger = logger
	}
}

// NewTieredGoodsReader wraps source with an L1 cache and optional L2
func NewTieredGoodsReader(source costing.GoodsReader, l1 GoodsCache, opts ...TieredGoodsReaderOption) *TieredGoodsReader {
	r := &TieredGoodsReader{
		source: source,
		l1:     l1,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FindByID returns goods from L1, then L2, then the source, filling the
// tiers above the one that answered.
func (r *TieredGoodsReader) FindByID(ctx context.Context, id uuid.UUID) (*costing.Goods, error) {
	if goods := r.lookup(ctx, r.l1, "L1", id); goods != nil {
		atomic.AddInt64(&r.l1Hits, 1)
		return goods, nil
	}

	if r.l2 != nil {
		if goods := r.lookup(ctx, r.l2, "L2", id); goods != nil {
			atomic.AddInt64(&r.l2Hits, 1)
			r.store(ctx, r.l1, "L1", goods)
			return goods, nil
		}
	}

	atomic.AddInt64(&r.misses, 1)
	goods, err := r.source.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if r.l2 != nil {
		r.store(ctx, r.l2, "L2", goods)
	}
	r.store(ctx, r.l1, "L1", goods)
	return goods, nil
}

// Invalidate drops the goods from both tiers
func (r *TieredGoodsReader) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := r.l1.Delete(ctx, id); err != nil {
		r.fail("L1", "delete", id, err)
	}
	if r.l2 != nil {
		if err := r.l2.Delete(ctx, id); err != nil {
			r.fail("L2", "delete", id, err)
		}
	}
}

// Stats reports hit counts per tier, source reads and cache failures
func (r *TieredGoodsReader) Stats() (l1Hits, l2Hits, misses, failures int64) {
	return atomic.LoadInt64(&r.l1Hits),
		atomic.LoadInt64(&r.l2Hits),
		atomic.LoadInt64(&r.misses),
		atomic.LoadInt64(&r.failures)
}

func (r *TieredGoodsReader) lookup(ctx context.Context, tier GoodsCache, name string, id uuid.UUID) *costing.Goods {
	goods, err := tier.Get(ctx, id)
	if err != nil {
		r.fail(name, "get", id, err)
		return nil
	}
	return goods
}

func (r *TieredGoodsReader) store(ctx context.Context, tier GoodsCache, name string, goods *costing.Goods) {
	if err := tier.Set(ctx, goods); err != nil {
		r.fail(name, "set", goods.ID, err)
	}
}

func (r *TieredGoodsReader) fail(tier, op string, id uuid.UUID, err error) {
	atomic.AddInt64(&r.failures, 1)
	r.logger.Warn("Goods cache operation failed",
		zap.String("tier", tier),
		zap.String("op", op),
		zap.String("goods_id", id.String()),
		zap.Error(err))
}

var (
	_ costing.GoodsReader = (*TieredGoodsReader)(nil)
	_ GoodsCache          = (*InMemoryGoodsCache)(nil)
	_ GoodsCache          = (*RedisGoodsCache)(nil)
)
