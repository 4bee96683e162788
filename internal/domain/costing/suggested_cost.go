package costing

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SuggestionSource tells which step of the fallback chain priced a request
type SuggestionSource string

const (
	SourceLot          SuggestionSource = "lot"
	SourceLayers       SuggestionSource = "layers"
	SourceLastInbound  SuggestionSource = "last_inbound"
	SourceStandardCost SuggestionSource = "standard_cost"
	// SourceBlended means layers covered part of the request and a fallback priced the rest
	SourceBlended SuggestionSource = "blended"
)

// SuggestRequest asks for a cost estimate before commit
type SuggestRequest struct {
	GoodsID         uuid.UUID
	WarehouseDestID uuid.UUID
	Quantity        decimal.Decimal
	Lot             string
	AttributeID     *uuid.UUID
	ExcludeLineIDs  []uuid.UUID
}

// CostSuggestion is the estimate for a request
type CostSuggestion struct {
	TotalCost decimal.Decimal
	UnitCost  decimal.Decimal
	Quantity  decimal.Decimal
	Source    SuggestionSource
	// Match holds the layer draws behind the estimate, if any
	Match *MatchResult
}

// CostSuggester runs the lot, layers, last inbound, standard cost chain.
// It never writes to the ledger, so it serves both previews and confirmations.
type CostSuggester struct {
	lots      *LotResolver
	fifo      *FIFOMatcher
	ledger    LedgerReader
	goods     GoodsReader
	precision Precision
}

// NewCostSuggester creates a new CostSuggester
func NewCostSuggester(lots *LotResolver, fifo *FIFOMatcher, ledger LedgerReader, goods GoodsReader, precision Precision) *CostSuggester {
	return &CostSuggester{
		lots:      lots,
		fifo:      fifo,
		ledger:    ledger,
		goods:     goods,
		precision: precision,
	}
}

// Suggest estimates the total and weighted-average unit cost of the request
func (s *CostSuggester) Suggest(ctx context.Context, req SuggestRequest) (*CostSuggestion, error) {
	goods, err := s.goods.FindByID(ctx, req.GoodsID)
	if err != nil {
		return nil, fmt.Errorf("load goods %s: %w", req.GoodsID, err)
	}
	if err := goods.ValidateQuantity(req.Quantity, s.precision); err != nil {
		return nil, err
	}
	p := goods.PrecisionOr(s.precision)
	qty := p.RoundQuantity(req.Quantity)

	if req.Lot != "" {
		match, err := s.lots.resolve(ctx, goods, req.Lot, qty, false)
		if err != nil {
			return nil, err
		}
		return s.suggestion(p, qty, match.TotalCost, SourceLot, match), nil
	}
	if goods.LotTracked {
		return nil, ErrLotRequired
	}

	match, err := s.fifo.collect(ctx, goods, MatchRequest{
		GoodsID:         req.GoodsID,
		WarehouseDestID: req.WarehouseDestID,
		Quantity:        qty,
		AttributeID:     req.AttributeID,
		ExcludeLineIDs:  req.ExcludeLineIDs,
	})
	if err != nil {
		return nil, err
	}
	if p.Exhausted(match.Shortage) {
		return s.suggestion(p, qty, match.TotalCost, SourceLayers, match), nil
	}

	unitCost, source, err := s.fallbackUnitCost(ctx, goods, req.WarehouseDestID)
	if err != nil {
		return nil, err
	}
	if match.MatchedQuantity.Sign() > 0 {
		source = SourceBlended
	}
	total := match.TotalCost.Add(match.Shortage.Mul(unitCost))
	return s.suggestion(p, qty, total, source, match), nil
}

// fallbackUnitCost prices unmatched quantity from the latest inbound line, or
// from the goods standard cost when the warehouse never received the goods
func (s *CostSuggester) fallbackUnitCost(ctx context.Context, goods *Goods, warehouseID uuid.UUID) (decimal.Decimal, SuggestionSource, error) {
	latest, err := s.ledger.FindLatestInbound(ctx, goods.ID, warehouseID)
	switch {
	case err == nil:
		return latest.UnitCost, SourceLastInbound, nil
	case errors.Is(err, shared.ErrNotFound):
		return goods.StandardCost, SourceStandardCost, nil
	default:
		return decimal.Zero, "", fmt.Errorf("find latest inbound: %w", err)
	}
}

func (s *CostSuggester) suggestion(p Precision, qty, total decimal.Decimal, source SuggestionSource, match *MatchResult) *CostSuggestion {
	total = p.RoundCost(total)
	return &CostSuggestion{
		TotalCost: total,
		UnitCost:  p.UnitCostOf(total, qty),
		Quantity:  qty,
		Source:    source,
		Match:     match,
	}
}
