package persistence

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
)

// InMemoryLedger is a process-local movement ledger. Lines live in one arena
// guarded by a mutex; multi-line writes stage a copy and swap it in whole.
type InMemoryLedger struct {
	mu    sync.RWMutex
	arena *ledgerArena
}

// NewInMemoryLedger creates an empty in-memory ledger
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{arena: newLedgerArena()}
}

func (l *InMemoryLedger) FindByID(_ context.Context, id uuid.UUID) (*costing.MovementLine, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.arena.findByID(id)
}

func (l *InMemoryLedger) FindByIDs(_ context.Context, ids []uuid.UUID) ([]costing.MovementLine, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.arena.findByIDs(ids), nil
}

func (l *InMemoryLedger) FindOpenLayers(_ context.Context, q costing.LayerQuery) ([]costing.MovementLine, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.arena.findOpenLayers(q), nil
}

func (l *InMemoryLedger) FindLatestInbound(_ context.Context, goodsID, warehouseDestID uuid.UUID) (*costing.MovementLine, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.arena.findLatestInbound(goodsID, warehouseDestID)
}

func (l *InMemoryLedger) FindInboundByLot(_ context.Context, goodsID uuid.UUID, lot string) (*costing.MovementLine, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.arena.findInboundByLot(goodsID, lot)
}

func (l *InMemoryLedger) Create(_ context.Context, line *costing.MovementLine) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.arena.create(line)
}

func (l *InMemoryLedger) Save(_ context.Context, line *costing.MovementLine) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.arena.save(line)
}

func (l *InMemoryLedger) ConsumeLayers(_ context.Context, consumptions []costing.LayerConsumption) error {
	return l.stage(func(a *ledgerArena) error { return a.consume(consumptions) })
}

func (l *InMemoryLedger) ReleaseLayers(_ context.Context, consumptions []costing.LayerConsumption) error {
	return l.stage(func(a *ledgerArena) error { return a.release(consumptions) })
}

// Transaction holds the write lock for the whole of fn and discards every
// change fn made if it returns an error
func (l *InMemoryLedger) Transaction(_ context.Context, fn func(repo costing.MovementLineRepository) error) error {
	return l.stage(func(a *ledgerArena) error { return fn(&ledgerTx{arena: a}) })
}

func (l *InMemoryLedger) stage(apply func(*ledgerArena) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	staged := l.arena.clone()
	if err := apply(staged); err != nil {
		return err
	}
	l.arena = staged
	return nil
}

// ledgerTx is the repository view handed to Transaction callbacks.
// The enclosing ledger lock is already held.
type ledgerTx struct {
	arena *ledgerArena
}

func (t *ledgerTx) FindByID(_ context.Context, id uuid.UUID) (*costing.MovementLine, error) {
	return t.arena.findByID(id)
}

func (t *ledgerTx) FindByIDs(_ context.Context, ids []uuid.UUID) ([]costing.MovementLine, error) {
	return t.arena.findByIDs(ids), nil
}

func (t *ledgerTx) FindOpenLayers(_ context.Context, q costing.LayerQuery) ([]costing.MovementLine, error) {
	return t.arena.findOpenLayers(q), nil
}

func (t *ledgerTx) FindLatestInbound(_ context.Context, goodsID, warehouseDestID uuid.UUID) (*costing.MovementLine, error) {
	return t.arena.findLatestInbound(goodsID, warehouseDestID)
}

func (t *ledgerTx) FindInboundByLot(_ context.Context, goodsID uuid.UUID, lot string) (*costing.MovementLine, error) {
	return t.arena.findInboundByLot(goodsID, lot)
}

func (t *ledgerTx) Create(_ context.Context, line *costing.MovementLine) error {
	return t.arena.create(line)
}

func (t *ledgerTx) Save(_ context.Context, line *costing.MovementLine) error {
	return t.arena.save(line)
}

func (t *ledgerTx) ConsumeLayers(_ context.Context, consumptions []costing.LayerConsumption) error {
	return t.nested(func(a *ledgerArena) error { return a.consume(consumptions) })
}

func (t *ledgerTx) ReleaseLayers(_ context.Context, consumptions []costing.LayerConsumption) error {
	return t.nested(func(a *ledgerArena) error { return a.release(consumptions) })
}

func (t *ledgerTx) Transaction(_ context.Context, fn func(repo costing.MovementLineRepository) error) error {
	return t.nested(func(a *ledgerArena) error { return fn(&ledgerTx{arena: a}) })
}

func (t *ledgerTx) nested(apply func(*ledgerArena) error) error {
	staged := t.arena.clone()
	if err := apply(staged); err != nil {
		return err
	}
	t.arena.lines = staged.lines
	return nil
}

// ledgerArena holds lines by value so callers never alias stored state
type ledgerArena struct {
	lines map[uuid.UUID]costing.MovementLine
}

func newLedgerArena() *ledgerArena {
	return &ledgerArena{lines: make(map[uuid.UUID]costing.MovementLine)}
}

func (a *ledgerArena) clone() *ledgerArena {
	return &ledgerArena{lines: maps.Clone(a.lines)}
}

func (a *ledgerArena) findByID(id uuid.UUID) (*costing.MovementLine, error) {
	line, ok := a.lines[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &line, nil
}

func (a *ledgerArena) findByIDs(ids []uuid.UUID) []costing.MovementLine {
	out := make([]costing.MovementLine, 0, len(ids))
	for _, id := range ids {
		if line, ok := a.lines[id]; ok {
			out = append(out, line)
		}
	}
	return out
}

func (a *ledgerArena) findOpenLayers(q costing.LayerQuery) []costing.MovementLine {
	out := make([]costing.MovementLine, 0)
	for _, line := range a.lines {
		if !line.IsCostLayer() || line.GoodsID != q.GoodsID {
			continue
		}
		if line.WarehouseDestID == nil || *line.WarehouseDestID != q.WarehouseDestID {
			continue
		}
		if q.AttributeID != nil && (line.AttributeID == nil || *line.AttributeID != *q.AttributeID) {
			continue
		}
		if q.LocationID != nil && (line.LocationID == nil || *line.LocationID != *q.LocationID) {
			continue
		}
		if slices.Contains(q.ExcludeLineIDs, line.ID) {
			continue
		}
		out = append(out, line)
	}
	slices.SortFunc(out, func(x, y costing.MovementLine) int {
		switch {
		case costing.LayerLess(&x, &y):
			return -1
		case costing.LayerLess(&y, &x):
			return 1
		}
		return 0
	})
	return out
}

func (a *ledgerArena) findLatestInbound(goodsID, warehouseDestID uuid.UUID) (*costing.MovementLine, error) {
	var latest *costing.MovementLine
	for _, line := range a.lines {
		if line.Direction != costing.DirectionIn || !line.IsDone() || line.GoodsID != goodsID {
			continue
		}
		if line.WarehouseDestID == nil || *line.WarehouseDestID != warehouseDestID {
			continue
		}
		if latest == nil || laterCompletion(&line, latest) {
			found := line
			latest = &found
		}
	}
	if latest == nil {
		return nil, shared.ErrNotFound
	}
	return latest, nil
}

func laterCompletion(a, b *costing.MovementLine) bool {
	if c := a.CompletionTime.Compare(*b.CompletionTime); c != 0 {
		return c > 0
	}
	return bytes.Compare(a.ID[:], b.ID[:]) > 0
}

func (a *ledgerArena) findInboundByLot(goodsID uuid.UUID, lot string) (*costing.MovementLine, error) {
	var found *costing.MovementLine
	for _, line := range a.lines {
		if line.Direction != costing.DirectionIn || line.GoodsID != goodsID || line.Lot != lot {
			continue
		}
		if found == nil || lotPreferred(&line, found) {
			candidate := line
			found = &candidate
		}
	}
	if found == nil {
		return nil, shared.ErrNotFound
	}
	return found, nil
}

// lotPreferred prefers open layers, then exhausted done lines, then drafts;
// ties go to the earliest completion, then the lower id
func lotPreferred(a, b *costing.MovementLine) bool {
	if ra, rb := lotRank(a), lotRank(b); ra != rb {
		return ra < rb
	}
	if a.CompletionTime != nil && b.CompletionTime != nil {
		if c := a.CompletionTime.Compare(*b.CompletionTime); c != 0 {
			return c < 0
		}
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

func lotRank(l *costing.MovementLine) int {
	switch {
	case l.IsCostLayer():
		return 0
	case l.IsDone():
		return 1
	}
	return 2
}

func (a *ledgerArena) create(line *costing.MovementLine) error {
	if _, exists := a.lines[line.ID]; exists {
		return shared.ErrAlreadyExists
	}
	if line.Version == 0 {
		line.Version = 1
	}
	a.lines[line.ID] = *line
	return nil
}

func (a *ledgerArena) save(line *costing.MovementLine) error {
	stored, ok := a.lines[line.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != line.Version {
		return fmt.Errorf("save movement line %s at version %d: %w", line.ID, line.Version, shared.ErrConcurrencyConflict)
	}
	line.Version++
	a.lines[line.ID] = *line
	return nil
}

func (a *ledgerArena) consume(consumptions []costing.LayerConsumption) error {
	for _, c := range consumptions {
		line, ok := a.lines[c.LineID]
		if !ok {
			return fmt.Errorf("consume from layer %s: %w", c.LineID, shared.ErrNotFound)
		}
		if c.Quantity.Sign() <= 0 {
			return shared.NewDomainError("INVALID_QUANTITY", "Consumed quantity must be positive")
		}
		if err := line.Consume(c.Quantity); err != nil {
			return fmt.Errorf("consume %s from layer %s: %w", c.Quantity, c.LineID, shared.ErrConcurrencyConflict)
		}
		line.Version++
		a.lines[c.LineID] = line
	}
	return nil
}

func (a *ledgerArena) release(consumptions []costing.LayerConsumption) error {
	for _, c := range consumptions {
		line, ok := a.lines[c.LineID]
		if !ok {
			return fmt.Errorf("release to layer %s: %w", c.LineID, shared.ErrNotFound)
		}
		if c.Quantity.Sign() <= 0 {
			return shared.NewDomainError("INVALID_QUANTITY", "Released quantity must be positive")
		}
		if err := line.Release(c.Quantity); err != nil {
			return fmt.Errorf("release %s to layer %s: %w", c.Quantity, c.LineID, err)
		}
		line.Version++
		a.lines[c.LineID] = line
	}
	return nil
}

var (
	_ costing.MovementLineRepository = (*InMemoryLedger)(nil)
	_ costing.MovementLineRepository = (*ledgerTx)(nil)
)

// InMemoryGoodsStore is a process-local goods master-data store
type InMemoryGoodsStore struct {
	mu    sync.RWMutex
	goods map[uuid.UUID]costing.Goods
}

// NewInMemoryGoodsStore creates an empty goods store
func NewInMemoryGoodsStore() *InMemoryGoodsStore {
	return &InMemoryGoodsStore{goods: make(map[uuid.UUID]costing.Goods)}
}

// FindByID returns a copy of the stored goods
func (s *InMemoryGoodsStore) FindByID(_ context.Context, id uuid.UUID) (*costing.Goods, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goods[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &g, nil
}

// Save inserts or replaces goods, assigning an ID when missing
func (s *InMemoryGoodsStore) Save(_ context.Context, goods *costing.Goods) error {
	if goods.ID == uuid.Nil {
		goods.ID = uuid.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goods[goods.ID] = *goods
	return nil
}

var _ costing.GoodsReader = (*InMemoryGoodsStore)(nil)
