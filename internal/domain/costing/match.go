package costing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MatchRecord is one draw of a request against a single source line
type MatchRecord struct {
	SourceLineID   uuid.UUID
	Quantity       decimal.Decimal
	AuxQuantity    decimal.Decimal
	UnitCost       decimal.Decimal
	ExpirationDate *time.Time
	// MakeUp marks a shortage attached to a pre-authorized make-up receipt
	// rather than a draw from an existing layer
	MakeUp bool
}

// MatchResult is the outcome of a lot resolution or a FIFO match
type MatchResult struct {
	Records         []MatchRecord
	TotalCost       decimal.Decimal
	MatchedQuantity decimal.Decimal // drawn from existing layers
	Shortage        decimal.Decimal // not drawn from existing layers
}

// LayerConsumptions returns the decrements a commit must apply.
// Make-up records are not layer draws and are left out.
func (r *MatchResult) LayerConsumptions() []LayerConsumption {
	out := make([]LayerConsumption, 0, len(r.Records))
	for _, rec := range r.Records {
		if rec.MakeUp || rec.Quantity.Sign() <= 0 {
			continue
		}
		out = append(out, LayerConsumption{LineID: rec.SourceLineID, Quantity: rec.Quantity})
	}
	return out
}

// MatchScope selects how a request finds its layers.
// It is one of StandardScope, LotScope or ShortageScope.
type MatchScope interface {
	isMatchScope()
}

// StandardScope walks layers in FIFO/FEFO order and fails on shortage
type StandardScope struct{}

// LotScope draws from one explicit lot
type LotScope struct {
	Lot string
	// AllowInsufficient lets the lot come up short; the caller is about to
	// create a make-up receipt for the difference
	AllowInsufficient bool
}

// ShortageScope walks layers like StandardScope but attaches any remaining
// shortage to the first listed make-up line of the same goods
type ShortageScope struct {
	MakeUpLineIDs []uuid.UUID
}

func (StandardScope) isMatchScope() {}
func (LotScope) isMatchScope()      {}
func (ShortageScope) isMatchScope() {}

// MatchRequest asks what an outgoing or internal quantity costs
type MatchRequest struct {
	GoodsID         uuid.UUID
	WarehouseDestID uuid.UUID
	Quantity        decimal.Decimal
	AttributeID     *uuid.UUID
	LocationID      *uuid.UUID
	ExcludeLineIDs  []uuid.UUID
	Scope           MatchScope // nil means StandardScope
}

// LayerQuery builds the ledger filter for the request
func (r MatchRequest) LayerQuery() LayerQuery {
	return LayerQuery{
		GoodsID:         r.GoodsID,
		WarehouseDestID: r.WarehouseDestID,
		AttributeID:     r.AttributeID,
		LocationID:      r.LocationID,
		ExcludeLineIDs:  r.ExcludeLineIDs,
	}
}
