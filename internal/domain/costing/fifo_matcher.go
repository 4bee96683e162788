package costing

import (
	"context"
	"fmt"
	"sort"

	"github.com/erp/costing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FIFOMatcher walks open layers nearest bin first, then soonest to expire,
// then oldest in, and greedily consumes them
type FIFOMatcher struct {
	strategy.BaseStrategy
	ledger    LedgerReader
	goods     GoodsReader
	precision Precision
}

// NewFIFOMatcher creates a new FIFOMatcher
func NewFIFOMatcher(ledger LedgerReader, goods GoodsReader, precision Precision) *FIFOMatcher {
	return &FIFOMatcher{
		BaseStrategy: strategy.NewBaseStrategy(
			"fifo",
			strategy.StrategyTypeMatching,
			"Location, then expiry, then arrival ordered layer consumption",
		),
		ledger:    ledger,
		goods:     goods,
		precision: precision,
	}
}

// Match prices the request against open layers. A shortage fails with
// InsufficientStockError unless the request carries a ShortageScope, in which
// case the whole remaining shortage is attached to the designated make-up line.
func (m *FIFOMatcher) Match(ctx context.Context, req MatchRequest) (*MatchResult, error) {
	goods, err := m.goods.FindByID(ctx, req.GoodsID)
	if err != nil {
		return nil, fmt.Errorf("load goods %s: %w", req.GoodsID, err)
	}
	if err := goods.ValidateQuantity(req.Quantity, m.precision); err != nil {
		return nil, err
	}
	return m.match(ctx, goods, req)
}

func (m *FIFOMatcher) match(ctx context.Context, goods *Goods, req MatchRequest) (*MatchResult, error) {
	p := goods.PrecisionOr(m.precision)
	result, err := m.collect(ctx, goods, req)
	if err != nil {
		return nil, err
	}
	if p.Exhausted(result.Shortage) {
		return result, nil
	}

	shortage, ok := req.Scope.(ShortageScope)
	if !ok {
		return nil, &InsufficientStockError{
			GoodsID:     goods.ID,
			WarehouseID: req.WarehouseDestID,
			Available:   result.MatchedQuantity,
			Requested:   p.RoundQuantity(req.Quantity),
		}
	}
	if err := m.attachMakeUp(ctx, goods, req, shortage, result); err != nil {
		return nil, err
	}
	return result, nil
}

// collect consumes whatever the open layers can give and reports the rest
// as Shortage without failing
func (m *FIFOMatcher) collect(ctx context.Context, goods *Goods, req MatchRequest) (*MatchResult, error) {
	p := goods.PrecisionOr(m.precision)

	layers, err := m.ledger.FindOpenLayers(ctx, req.LayerQuery())
	if err != nil {
		return nil, fmt.Errorf("find open layers: %w", err)
	}
	// The store already orders layers; sorting again keeps the walk
	// independent of the backend.
	sort.SliceStable(layers, func(i, j int) bool {
		return LayerLess(&layers[i], &layers[j])
	})

	needed := p.RoundQuantity(req.Quantity)
	result := &MatchResult{
		Records:         make([]MatchRecord, 0),
		TotalCost:       decimal.Zero,
		MatchedQuantity: decimal.Zero,
	}
	cost := decimal.Zero

	for i := range layers {
		if p.Exhausted(needed) {
			break
		}
		layer := &layers[i]
		if !layer.IsCostLayer() {
			continue
		}
		take := decimal.Min(layer.RemainingQuantity, needed)
		cost = cost.Add(take.Mul(layer.UnitCost))
		needed = p.RoundQuantity(needed.Sub(take))
		result.MatchedQuantity = result.MatchedQuantity.Add(take)
		result.Records = append(result.Records, MatchRecord{
			SourceLineID:   layer.ID,
			Quantity:       take,
			AuxQuantity:    goods.AuxQuantity(take, p),
			UnitCost:       layer.UnitCost,
			ExpirationDate: layer.ExpirationDate,
		})
	}

	if p.Exhausted(needed) {
		needed = decimal.Zero
	}
	result.Shortage = needed
	result.TotalCost = p.RoundCost(cost)
	return result, nil
}

func (m *FIFOMatcher) attachMakeUp(
	ctx context.Context,
	goods *Goods,
	req MatchRequest,
	scope ShortageScope,
	result *MatchResult,
) error {
	p := goods.PrecisionOr(m.precision)
	insufficient := &InsufficientStockError{
		GoodsID:     goods.ID,
		WarehouseID: req.WarehouseDestID,
		Available:   result.MatchedQuantity,
		Requested:   p.RoundQuantity(req.Quantity),
	}
	if len(scope.MakeUpLineIDs) == 0 {
		return insufficient
	}

	lines, err := m.ledger.FindByIDs(ctx, scope.MakeUpLineIDs)
	if err != nil {
		return fmt.Errorf("load make-up lines: %w", err)
	}
	byID := make(map[uuid.UUID]*MovementLine, len(lines))
	for i := range lines {
		byID[lines[i].ID] = &lines[i]
	}

	// The first listed draft inbound line of the same goods takes it all.
	// Done lines are skipped: their stock is already counted in the layers.
	for _, id := range scope.MakeUpLineIDs {
		line, ok := byID[id]
		if !ok || line.Direction != DirectionIn || line.GoodsID != goods.ID || line.IsDone() {
			continue
		}
		unitCost := line.UnitCost
		if line.TotalCost.Sign() != 0 {
			unitCost = line.EffectiveUnitCost()
		}
		result.Records = append(result.Records, MatchRecord{
			SourceLineID:   line.ID,
			Quantity:       result.Shortage,
			AuxQuantity:    goods.AuxQuantity(result.Shortage, p),
			UnitCost:       p.RoundUnitCost(unitCost),
			ExpirationDate: line.ExpirationDate,
			MakeUp:         true,
		})
		result.TotalCost = p.RoundCost(result.TotalCost.Add(result.Shortage.Mul(unitCost)))
		return nil
	}
	return insufficient
}
