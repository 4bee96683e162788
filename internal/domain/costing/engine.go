package costing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Engine exposes the four costing operations over one ledger snapshot
type Engine struct {
	goods       GoodsReader
	precision   Precision
	lots        *LotResolver
	fifo        *FIFOMatcher
	suggester   *CostSuggester
	apportioner *Apportioner
}

// NewEngine wires the resolver, matcher, suggester and apportioner
func NewEngine(ledger LedgerReader, goods GoodsReader, precision Precision) *Engine {
	lots := NewLotResolver(ledger, goods, precision)
	fifo := NewFIFOMatcher(ledger, goods, precision)
	return &Engine{
		goods:       goods,
		precision:   precision,
		lots:        lots,
		fifo:        fifo,
		suggester:   NewCostSuggester(lots, fifo, ledger, goods, precision),
		apportioner: NewApportioner(precision),
	}
}

// ResolveByLot prices a quantity of one explicit lot
func (e *Engine) ResolveByLot(ctx context.Context, goodsID uuid.UUID, lot string, requested decimal.Decimal, allowInsufficient bool) (*MatchResult, error) {
	return e.lots.Resolve(ctx, goodsID, lot, requested, allowInsufficient)
}

// Match dispatches on the request scope. Lot-tracked goods only match through a LotScope.
func (e *Engine) Match(ctx context.Context, req MatchRequest) (*MatchResult, error) {
	goods, err := e.goods.FindByID(ctx, req.GoodsID)
	if err != nil {
		return nil, fmt.Errorf("load goods %s: %w", req.GoodsID, err)
	}
	if err := goods.ValidateQuantity(req.Quantity, e.precision); err != nil {
		return nil, err
	}

	switch scope := req.Scope.(type) {
	case LotScope:
		return e.lots.resolve(ctx, goods, scope.Lot, req.Quantity, scope.AllowInsufficient)
	case nil, StandardScope, ShortageScope:
		if goods.LotTracked {
			return nil, ErrLotRequired
		}
		return e.fifo.match(ctx, goods, req)
	default:
		return nil, fmt.Errorf("unsupported match scope %T", scope)
	}
}

// SuggestCost estimates cost through the fallback chain
func (e *Engine) SuggestCost(ctx context.Context, req SuggestRequest) (*CostSuggestion, error) {
	return e.suggester.Suggest(ctx, req)
}

// Apportion splits a pooled cost over output lines
func (e *Engine) Apportion(pool decimal.Decimal, members []ApportionMember) ([]Allocation, error) {
	return e.apportioner.Apportion(pool, members)
}
