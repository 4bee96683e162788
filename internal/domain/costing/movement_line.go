package costing

import (
	"bytes"
	"time"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction is the flow of a movement line relative to the warehouse
type Direction string

const (
	DirectionIn       Direction = "in"
	DirectionOut      Direction = "out"
	DirectionInternal Direction = "internal"
)

// IsValid returns true if the direction is known
func (d Direction) IsValid() bool {
	switch d {
	case DirectionIn, DirectionOut, DirectionInternal:
		return true
	}
	return false
}

// LineState is the confirmation state of a movement line
type LineState string

const (
	LineStateDraft LineState = "draft"
	LineStateDone  LineState = "done"
)

// MovementLine is the atomic unit of stock movement.
// Once done, only RemainingQuantity changes, and only through LayerCommitter.
type MovementLine struct {
	shared.BaseEntity
	Direction         Direction
	State             LineState
	GoodsID           uuid.UUID
	AttributeID       *uuid.UUID
	Lot               string
	WarehouseID       *uuid.UUID // source
	WarehouseDestID   *uuid.UUID // destination
	LocationID        *uuid.UUID
	Quantity          decimal.Decimal
	RemainingQuantity decimal.Decimal // only meaningful on done inbound lines
	UnitCost          decimal.Decimal
	TotalCost         decimal.Decimal
	CompletionTime    *time.Time
	ExpirationDate    *time.Time
	Version           int // bumped by the store on every successful save
}

// NewMovementLine creates a draft movement line
func NewMovementLine(direction Direction, goodsID uuid.UUID, quantity decimal.Decimal) (*MovementLine, error) {
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Unknown movement direction: "+string(direction))
	}
	if goodsID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_GOODS", "Goods ID cannot be empty")
	}
	if quantity.Sign() <= 0 {
		return nil, &InvalidQuantityError{GoodsID: goodsID, Quantity: quantity, Reason: "quantity must be positive"}
	}
	return &MovementLine{
		BaseEntity: shared.NewBaseEntity(),
		Direction:  direction,
		State:      LineStateDraft,
		GoodsID:    goodsID,
		Quantity:   quantity,
		Version:    1,
	}, nil
}

// IsDone returns true once the line has been confirmed
func (l *MovementLine) IsDone() bool {
	return l.State == LineStateDone
}

// IsCostLayer returns true for a done inbound line that still has quantity to give
func (l *MovementLine) IsCostLayer() bool {
	return l.Direction == DirectionIn && l.IsDone() && l.RemainingQuantity.Sign() > 0
}

// EffectiveUnitCost derives unit cost from total cost, which is the source of truth
func (l *MovementLine) EffectiveUnitCost() decimal.Decimal {
	if l.Quantity.IsZero() {
		return decimal.Zero
	}
	return l.TotalCost.Div(l.Quantity)
}

// SetLot assigns the lot of a draft line
func (l *MovementLine) SetLot(lot string) error {
	if l.IsDone() {
		return shared.NewDomainError("LOT_IMMUTABLE", "Lot cannot change after the line is completed")
	}
	l.Lot = lot
	l.Touch()
	return nil
}

// SetInboundCost sets the total cost of a draft inbound line and derives unit cost
func (l *MovementLine) SetInboundCost(total decimal.Decimal, p Precision) error {
	if l.IsDone() {
		return shared.NewDomainError("COST_IMMUTABLE", "Inbound cost cannot change after the line is completed")
	}
	l.TotalCost = p.RoundCost(total)
	l.UnitCost = p.UnitCostOf(l.TotalCost, l.Quantity)
	l.Touch()
	return nil
}

// SetAllocatedCost writes an apportioned share onto a draft inbound line.
// The share is already rounded by the apportioner and is stored unchanged so
// the outputs of one operation keep summing to its pool.
func (l *MovementLine) SetAllocatedCost(total decimal.Decimal, p Precision) error {
	if l.IsDone() {
		return shared.NewDomainError("COST_IMMUTABLE", "Inbound cost cannot change after the line is completed")
	}
	l.TotalCost = total
	l.UnitCost = p.UnitCostOf(total, l.Quantity)
	l.Touch()
	return nil
}

// Complete confirms the line. A completed inbound line becomes a cost layer
// whose remaining quantity starts at the full quantity.
func (l *MovementLine) Complete(at time.Time, goods *Goods, p Precision) error {
	if l.IsDone() {
		return shared.NewDomainError("ALREADY_DONE", "Movement line is already completed")
	}
	if err := goods.ValidateQuantity(l.Quantity, p); err != nil {
		return err
	}
	if l.Direction == DirectionIn {
		if goods.LotTracked && l.Lot == "" {
			return ErrLotRequired
		}
		if l.WarehouseDestID == nil {
			return shared.NewDomainError("INVALID_WAREHOUSE", "Inbound line needs a destination warehouse")
		}
		l.RemainingQuantity = l.Quantity
		l.UnitCost = p.UnitCostOf(l.TotalCost, l.Quantity)
	}
	completed := at
	l.CompletionTime = &completed
	l.State = LineStateDone
	l.Touch()
	return nil
}

// ApplyCost writes the finalized cost of an outgoing or internal line
func (l *MovementLine) ApplyCost(total decimal.Decimal, p Precision) {
	l.TotalCost = p.RoundCost(total)
	l.UnitCost = p.UnitCostOf(l.TotalCost, l.Quantity)
	l.Touch()
}

// Consume decrements the remaining quantity of a cost layer
func (l *MovementLine) Consume(qty decimal.Decimal) error {
	if !l.IsCostLayer() || l.RemainingQuantity.LessThan(qty) {
		return &InsufficientStockError{
			GoodsID:     l.GoodsID,
			Lot:         l.Lot,
			WarehouseID: derefID(l.WarehouseDestID),
			Available:   l.RemainingQuantity,
			Requested:   qty,
		}
	}
	l.RemainingQuantity = l.RemainingQuantity.Sub(qty)
	l.Touch()
	return nil
}

// Release gives quantity back to a layer, never beyond its original quantity
func (l *MovementLine) Release(qty decimal.Decimal) error {
	if l.Direction != DirectionIn || !l.IsDone() {
		return shared.ErrInvalidState
	}
	if l.RemainingQuantity.Add(qty).GreaterThan(l.Quantity) {
		return shared.NewDomainError("RELEASE_EXCEEDS_QUANTITY", "Released quantity exceeds the layer quantity")
	}
	l.RemainingQuantity = l.RemainingQuantity.Add(qty)
	l.Touch()
	return nil
}

// LayerLess is the total order layers are consumed in: location (nulls last),
// expiration date (nulls last), completion time, then id.
func LayerLess(a, b *MovementLine) bool {
	if c := compareOptionalID(a.LocationID, b.LocationID); c != 0 {
		return c < 0
	}
	if c := compareOptionalTime(a.ExpirationDate, b.ExpirationDate); c != 0 {
		return c < 0
	}
	if c := compareOptionalTime(a.CompletionTime, b.CompletionTime); c != 0 {
		return c < 0
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

func compareOptionalID(a, b *uuid.UUID) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return bytes.Compare(a[:], b[:])
}

func compareOptionalTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}

func derefID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
