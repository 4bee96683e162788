package costing

import (
	"fmt"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrLotRequired is returned when lot-tracked goods are requested without a lot
var ErrLotRequired = shared.NewDomainError("LOT_REQUIRED", "Lot-tracked goods must be consumed from an explicit lot")

// InsufficientStockError reports that the matchable layers cannot cover a request
type InsufficientStockError struct {
	GoodsID     uuid.UUID
	Lot         string
	WarehouseID uuid.UUID
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

// Shortfall returns how much of the request is missing
func (e *InsufficientStockError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

func (e *InsufficientStockError) Error() string {
	if e.Lot != "" {
		return fmt.Sprintf("insufficient stock for goods %s lot %q: available %s, requested %s",
			e.GoodsID, e.Lot, e.Available, e.Requested)
	}
	return fmt.Sprintf("insufficient stock for goods %s in warehouse %s: available %s, requested %s",
		e.GoodsID, e.WarehouseID, e.Available, e.Requested)
}

// Is matches shared.ErrInsufficientStock
func (e *InsufficientStockError) Is(target error) bool {
	return shared.ErrInsufficientStock.Is(target)
}

// LotNotReadyError reports a lot whose inbound line is still a draft
type LotNotReadyError struct {
	GoodsID uuid.UUID
	Lot     string
	LineID  uuid.UUID
}

func (e *LotNotReadyError) Error() string {
	return fmt.Sprintf("lot %q of goods %s is not received yet (line %s)", e.Lot, e.GoodsID, e.LineID)
}

// Is matches shared.ErrLotNotReady
func (e *LotNotReadyError) Is(target error) bool {
	return shared.ErrLotNotReady.Is(target)
}

// InvalidQuantityError reports a request quantity rejected before matching
type InvalidQuantityError struct {
	GoodsID  uuid.UUID
	Quantity decimal.Decimal
	Reason   string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %s for goods %s: %s", e.Quantity, e.GoodsID, e.Reason)
}

// Is matches shared.ErrInvalidQuantity
func (e *InvalidQuantityError) Is(target error) bool {
	return shared.ErrInvalidQuantity.Is(target)
}
