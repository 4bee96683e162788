package costing

import "github.com/shopspring/decimal"

// Precision holds the number of decimal places used for each kind of amount
type Precision struct {
	Quantity int32
	Cost     int32
	UnitCost int32
}

// DefaultPrecision is used when neither the goods nor the configuration specify one
var DefaultPrecision = Precision{Quantity: 4, Cost: 2, UnitCost: 6}

// RoundQuantity rounds a quantity to the configured places
func (p Precision) RoundQuantity(d decimal.Decimal) decimal.Decimal {
	return d.Round(p.Quantity)
}

// RoundCost rounds a monetary total to the configured places
func (p Precision) RoundCost(d decimal.Decimal) decimal.Decimal {
	return d.Round(p.Cost)
}

// RoundUnitCost rounds a per-unit cost to the configured places
func (p Precision) RoundUnitCost(d decimal.Decimal) decimal.Decimal {
	return d.Round(p.UnitCost)
}

// Exhausted reports whether a quantity is zero or negative once rounded.
// Residue below the quantity precision counts as exhausted.
func (p Precision) Exhausted(qty decimal.Decimal) bool {
	return p.RoundQuantity(qty).Sign() <= 0
}

// UnitCostOf divides total by quantity; a zero quantity yields zero
func (p Precision) UnitCostOf(total, quantity decimal.Decimal) decimal.Decimal {
	if quantity.IsZero() {
		return decimal.Zero
	}
	return p.RoundUnitCost(total.Div(quantity))
}

// Valid reports whether all places are within a sane range
func (p Precision) Valid() bool {
	return inRange(p.Quantity) && inRange(p.Cost) && inRange(p.UnitCost)
}

func inRange(places int32) bool {
	return places >= 0 && places <= 12
}
