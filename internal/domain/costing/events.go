package costing

import (
	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeLayerOpened      = "costing.layer_opened"
	EventTypeLayersConsumed   = "costing.layers_consumed"
	EventTypeCostsApportioned = "costing.costs_apportioned"
)

const (
	aggregateTypeMovementLine   = "MovementLine"
	aggregateTypeJointOperation = "JointOperation"
)

// LayerOpenedEvent is published when an inbound line becomes a cost layer
type LayerOpenedEvent struct {
	shared.BaseDomainEvent
	GoodsID     uuid.UUID       `json:"goods_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Lot         string          `json:"lot,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// NewLayerOpenedEvent creates a LayerOpenedEvent
func NewLayerOpenedEvent(line *MovementLine) *LayerOpenedEvent {
	return &LayerOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLayerOpened, aggregateTypeMovementLine, line.ID),
		GoodsID:         line.GoodsID,
		WarehouseID:     derefID(line.WarehouseDestID),
		Lot:             line.Lot,
		Quantity:        line.Quantity,
		UnitCost:        line.UnitCost,
	}
}

// LayersConsumedEvent is published when an outgoing or internal line commits its match
type LayersConsumedEvent struct {
	shared.BaseDomainEvent
	GoodsID   uuid.UUID       `json:"goods_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	TotalCost decimal.Decimal `json:"total_cost"`
	Records   []MatchRecord   `json:"records"`
}

// NewLayersConsumedEvent creates a LayersConsumedEvent
func NewLayersConsumedEvent(line *MovementLine, match *MatchResult) *LayersConsumedEvent {
	return &LayersConsumedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLayersConsumed, aggregateTypeMovementLine, line.ID),
		GoodsID:         line.GoodsID,
		Quantity:        line.Quantity,
		TotalCost:       match.TotalCost,
		Records:         match.Records,
	}
}

// CostsApportionedEvent is published when a joint operation's outputs get their costs
type CostsApportionedEvent struct {
	shared.BaseDomainEvent
	Kind        JointKind       `json:"kind"`
	PoolCost    decimal.Decimal `json:"pool_cost"`
	Allocations []Allocation    `json:"allocations"`
}

// NewCostsApportionedEvent creates a CostsApportionedEvent for the rounded pool
func NewCostsApportionedEvent(op *JointOperation, pool decimal.Decimal, allocations []Allocation) *CostsApportionedEvent {
	return &CostsApportionedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCostsApportioned, aggregateTypeJointOperation, op.ID),
		Kind:            op.Kind,
		PoolCost:        pool,
		Allocations:     allocations,
	}
}
