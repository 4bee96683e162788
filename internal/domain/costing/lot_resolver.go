package costing

import (
	"context"
	"fmt"

	"github.com/erp/costing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotResolver prices a request against one explicitly selected lot
type LotResolver struct {
	strategy.BaseStrategy
	ledger    LedgerReader
	goods     GoodsReader
	precision Precision
}

// NewLotResolver creates a new LotResolver
func NewLotResolver(ledger LedgerReader, goods GoodsReader, precision Precision) *LotResolver {
	return &LotResolver{
		BaseStrategy: strategy.NewBaseStrategy(
			"lot",
			strategy.StrategyTypeMatching,
			"Draws the requested quantity from one explicit lot",
		),
		ledger:    ledger,
		goods:     goods,
		precision: precision,
	}
}

// Resolve prices requested units of the lot. The lot must be received and
// hold at least the requested quantity unless allowInsufficient is set, in
// which case the missing part is reported as Shortage and still priced at
// the lot's unit cost. Nothing is decremented.
func (r *LotResolver) Resolve(
	ctx context.Context,
	goodsID uuid.UUID,
	lot string,
	requested decimal.Decimal,
	allowInsufficient bool,
) (*MatchResult, error) {
	goods, err := r.goods.FindByID(ctx, goodsID)
	if err != nil {
		return nil, fmt.Errorf("load goods %s: %w", goodsID, err)
	}
	if err := goods.ValidateQuantity(requested, r.precision); err != nil {
		return nil, err
	}
	return r.resolve(ctx, goods, lot, requested, allowInsufficient)
}

func (r *LotResolver) resolve(
	ctx context.Context,
	goods *Goods,
	lot string,
	requested decimal.Decimal,
	allowInsufficient bool,
) (*MatchResult, error) {
	p := goods.PrecisionOr(r.precision)
	requested = p.RoundQuantity(requested)

	layer, err := r.ledger.FindInboundByLot(ctx, goods.ID, lot)
	if err != nil {
		return nil, fmt.Errorf("find lot %q: %w", lot, err)
	}
	if !layer.IsDone() {
		return nil, &LotNotReadyError{GoodsID: goods.ID, Lot: lot, LineID: layer.ID}
	}

	available := layer.RemainingQuantity
	if available.LessThan(requested) && !allowInsufficient {
		return nil, &InsufficientStockError{
			GoodsID:     goods.ID,
			Lot:         lot,
			WarehouseID: derefID(layer.WarehouseDestID),
			Available:   available,
			Requested:   requested,
		}
	}

	unitCost := layer.EffectiveUnitCost()
	drawn := decimal.Min(available, requested)
	if drawn.Sign() < 0 {
		drawn = decimal.Zero
	}

	result := &MatchResult{
		Records:         make([]MatchRecord, 0, 1),
		TotalCost:       p.RoundCost(requested.Mul(unitCost)),
		MatchedQuantity: drawn,
		Shortage:        requested.Sub(drawn),
	}
	if drawn.Sign() > 0 {
		result.Records = append(result.Records, MatchRecord{
			SourceLineID:   layer.ID,
			Quantity:       drawn,
			AuxQuantity:    goods.AuxQuantity(drawn, p),
			UnitCost:       p.RoundUnitCost(unitCost),
			ExpirationDate: layer.ExpirationDate,
		})
	}
	return result, nil
}
