package costing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Goods is the master data the engine reads for a stock-keeping item
type Goods struct {
	ID   uuid.UUID
	Code string
	Name string
	// ConversionFactor is main units per auxiliary unit. Zero or negative means 1.
	ConversionFactor decimal.Decimal
	LotTracked       bool
	ForceBatchOne    bool
	StandardCost     decimal.Decimal
	// Precision overrides the engine default when set
	Precision *Precision
}

// PrecisionOr returns the goods precision, or fallback when the goods has none
func (g *Goods) PrecisionOr(fallback Precision) Precision {
	if g.Precision != nil && g.Precision.Valid() {
		return *g.Precision
	}
	return fallback
}

// AuxQuantity converts a main-unit quantity to the auxiliary unit
func (g *Goods) AuxQuantity(qty decimal.Decimal, p Precision) decimal.Decimal {
	if g.ConversionFactor.Sign() <= 0 {
		return p.RoundQuantity(qty)
	}
	return p.RoundQuantity(qty.Div(g.ConversionFactor))
}

// ValidateQuantity fails fast on quantities that are not positive once rounded
// to the goods quantity places, and on anything other than exactly one unit
// for force-batch-one goods.
func (g *Goods) ValidateQuantity(qty decimal.Decimal, fallback Precision) error {
	if g.PrecisionOr(fallback).Exhausted(qty) {
		return &InvalidQuantityError{GoodsID: g.ID, Quantity: qty, Reason: "quantity must be positive"}
	}
	if g.ForceBatchOne && !qty.Equal(decimal.NewFromInt(1)) {
		return &InvalidQuantityError{GoodsID: g.ID, Quantity: qty, Reason: "goods is forced to batches of exactly one"}
	}
	return nil
}
