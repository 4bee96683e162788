package costing

import (
	"bytes"
	"context"
	"time"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fakeLedger is an unordered in-memory ledger; the matcher must not rely on its order
type fakeLedger struct {
	lines []MovementLine
	goods map[uuid.UUID]*Goods
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{goods: make(map[uuid.UUID]*Goods)}
}

func (f *fakeLedger) addGoods(g *Goods) *Goods {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	f.goods[g.ID] = g
	return g
}

// addLayer stores a done inbound line and returns its id
func (f *fakeLedger) addLayer(goodsID, warehouseID uuid.UUID, qty, unitCost string, completed time.Time, opts ...func(*MovementLine)) uuid.UUID {
	q := decimal.RequireFromString(qty)
	u := decimal.RequireFromString(unitCost)
	wh := warehouseID
	at := completed
	line := MovementLine{
		BaseEntity:        shared.NewBaseEntity(),
		Direction:         DirectionIn,
		State:             LineStateDone,
		GoodsID:           goodsID,
		WarehouseDestID:   &wh,
		Quantity:          q,
		RemainingQuantity: q,
		UnitCost:          u,
		TotalCost:         q.Mul(u),
		CompletionTime:    &at,
		Version:           1,
	}
	for _, opt := range opts {
		opt(&line)
	}
	// prepend so storage order is the reverse of insertion order
	f.lines = append([]MovementLine{line}, f.lines...)
	return line.ID
}

func (f *fakeLedger) line(id uuid.UUID) *MovementLine {
	for i := range f.lines {
		if f.lines[i].ID == id {
			return &f.lines[i]
		}
	}
	return nil
}

func withLocation(id uuid.UUID) func(*MovementLine) {
	return func(l *MovementLine) { l.LocationID = &id }
}

func withExpiration(at time.Time) func(*MovementLine) {
	return func(l *MovementLine) { l.ExpirationDate = &at }
}

func withLot(lot string) func(*MovementLine) {
	return func(l *MovementLine) { l.Lot = lot }
}

func withRemaining(qty string) func(*MovementLine) {
	return func(l *MovementLine) { l.RemainingQuantity = decimal.RequireFromString(qty) }
}

func withAttribute(id uuid.UUID) func(*MovementLine) {
	return func(l *MovementLine) { l.AttributeID = &id }
}

func asDraft() func(*MovementLine) {
	return func(l *MovementLine) {
		l.State = LineStateDraft
		l.CompletionTime = nil
		l.RemainingQuantity = decimal.Zero
	}
}

func (f *fakeLedger) FindOpenLayers(_ context.Context, q LayerQuery) ([]MovementLine, error) {
	excluded := make(map[uuid.UUID]bool, len(q.ExcludeLineIDs))
	for _, id := range q.ExcludeLineIDs {
		excluded[id] = true
	}
	out := make([]MovementLine, 0)
	for _, l := range f.lines {
		if !l.IsCostLayer() || l.GoodsID != q.GoodsID || derefID(l.WarehouseDestID) != q.WarehouseDestID {
			continue
		}
		if q.AttributeID != nil && (l.AttributeID == nil || *l.AttributeID != *q.AttributeID) {
			continue
		}
		if q.LocationID != nil && (l.LocationID == nil || *l.LocationID != *q.LocationID) {
			continue
		}
		if excluded[l.ID] {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeLedger) FindLatestInbound(_ context.Context, goodsID, warehouseDestID uuid.UUID) (*MovementLine, error) {
	var latest *MovementLine
	for i := range f.lines {
		l := &f.lines[i]
		if l.Direction != DirectionIn || !l.IsDone() || l.GoodsID != goodsID || derefID(l.WarehouseDestID) != warehouseDestID {
			continue
		}
		if latest == nil {
			latest = l
			continue
		}
		c := l.CompletionTime.Compare(*latest.CompletionTime)
		if c > 0 || (c == 0 && bytes.Compare(l.ID[:], latest.ID[:]) > 0) {
			latest = l
		}
	}
	if latest == nil {
		return nil, shared.ErrNotFound
	}
	found := *latest
	return &found, nil
}

// FindInboundByLot returns the first open layer of the lot, else the first
// inbound line carrying it
func (f *fakeLedger) FindInboundByLot(_ context.Context, goodsID uuid.UUID, lot string) (*MovementLine, error) {
	var fallback *MovementLine
	for i := range f.lines {
		l := f.lines[i]
		if l.Direction != DirectionIn || l.GoodsID != goodsID || l.Lot != lot {
			continue
		}
		if l.IsCostLayer() {
			return &l, nil
		}
		if fallback == nil {
			fallback = &l
		}
	}
	if fallback == nil {
		return nil, shared.ErrNotFound
	}
	return fallback, nil
}

func (f *fakeLedger) FindByIDs(_ context.Context, ids []uuid.UUID) ([]MovementLine, error) {
	out := make([]MovementLine, 0, len(ids))
	for _, id := range ids {
		if l := f.line(id); l != nil {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeLedger) FindByID(_ context.Context, id uuid.UUID) (*Goods, error) {
	g, ok := f.goods[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return g, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var baseTime = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func at(hours int) time.Time {
	return baseTime.Add(time.Duration(hours) * time.Hour)
}
