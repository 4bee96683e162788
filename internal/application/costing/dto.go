package costing

import (
	"time"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SuggestCostRequest asks for a cost estimate without touching the ledger
type SuggestCostRequest struct {
	GoodsID        uuid.UUID       `json:"goods_id" binding:"required"`
	WarehouseID    uuid.UUID       `json:"warehouse_id" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required,decimal_gt0"`
	Lot            string          `json:"lot" binding:"max=64"`
	AttributeID    *uuid.UUID      `json:"attribute_id"`
	ExcludeLineIDs []uuid.UUID     `json:"exclude_line_ids"`
}

// CostSuggestionResponse is the estimate and the source that produced it
type CostSuggestionResponse struct {
	TotalCost decimal.Decimal       `json:"total_cost"`
	UnitCost  decimal.Decimal       `json:"unit_cost"`
	Quantity  decimal.Decimal       `json:"quantity"`
	Source    string                `json:"source"`
	Records   []MatchRecordResponse `json:"records,omitempty"`
}

// MatchCostRequest previews which layers a quantity would draw from.
// Lot selects lot scope; MakeUpLineIDs selects pre-authorized shortage scope.
type MatchCostRequest struct {
	GoodsID           uuid.UUID       `json:"goods_id" binding:"required"`
	WarehouseID       uuid.UUID       `json:"warehouse_id" binding:"required"`
	Quantity          decimal.Decimal `json:"quantity" binding:"required,decimal_gt0"`
	AttributeID       *uuid.UUID      `json:"attribute_id"`
	LocationID        *uuid.UUID      `json:"location_id"`
	ExcludeLineIDs    []uuid.UUID     `json:"exclude_line_ids"`
	Lot               string          `json:"lot" binding:"max=64"`
	AllowInsufficient bool            `json:"allow_insufficient"`
	MakeUpLineIDs     []uuid.UUID     `json:"make_up_line_ids"`
}

// MatchRecordResponse is one layer draw
type MatchRecordResponse struct {
	SourceLineID   uuid.UUID       `json:"source_line_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	AuxQuantity    decimal.Decimal `json:"aux_quantity"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
	MakeUp         bool            `json:"make_up,omitempty"`
}

// MatchResponse is the outcome of a match
type MatchResponse struct {
	Records         []MatchRecordResponse `json:"records"`
	TotalCost       decimal.Decimal       `json:"total_cost"`
	MatchedQuantity decimal.Decimal       `json:"matched_quantity"`
	Shortage        decimal.Decimal       `json:"shortage"`
}

// ApportionMemberRequest is one output sharing a pool
type ApportionMemberRequest struct {
	LineID     uuid.UUID       `json:"line_id" binding:"required"`
	BasisValue decimal.Decimal `json:"basis_value" binding:"decimal_gte0"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required,decimal_gte0"`
}

// ApportionRequest previews how a pool splits over its members
type ApportionRequest struct {
	PoolCost decimal.Decimal          `json:"pool_cost"`
	Members  []ApportionMemberRequest `json:"members" binding:"required,min=1,dive"`
}

// AllocationResponse is one member's share of a pool
type AllocationResponse struct {
	LineID            uuid.UUID       `json:"line_id"`
	AllocatedCost     decimal.Decimal `json:"allocated_cost"`
	AllocatedUnitCost decimal.Decimal `json:"allocated_unit_cost"`
}

// CreateMovementRequest records a draft movement line
type CreateMovementRequest struct {
	Direction       string           `json:"direction" binding:"required,oneof=in out internal"`
	GoodsID         uuid.UUID        `json:"goods_id" binding:"required"`
	Quantity        decimal.Decimal  `json:"quantity" binding:"required,decimal_gt0"`
	Lot             string           `json:"lot" binding:"max=64"`
	AttributeID     *uuid.UUID       `json:"attribute_id"`
	WarehouseID     *uuid.UUID       `json:"warehouse_id"`
	WarehouseDestID *uuid.UUID       `json:"warehouse_dest_id"`
	LocationID      *uuid.UUID       `json:"location_id"`
	TotalCost       *decimal.Decimal `json:"total_cost" binding:"omitempty,decimal_gte0"`
	ExpirationDate  *time.Time       `json:"expiration_date"`
}

// CompleteInboundRequest confirms a draft inbound line. Cost and lot may be
// set in the same call.
type CompleteInboundRequest struct {
	TotalCost *decimal.Decimal `json:"total_cost" binding:"omitempty,decimal_gte0"`
	Lot       *string          `json:"lot" binding:"omitempty,max=64"`
}

// ConfirmOutboundRequest confirms a draft out or internal line by matching it
type ConfirmOutboundRequest struct {
	ExcludeLineIDs    []uuid.UUID `json:"exclude_line_ids"`
	Lot               string      `json:"lot" binding:"max=64"`
	AllowInsufficient bool        `json:"allow_insufficient"`
	MakeUpLineIDs     []uuid.UUID `json:"make_up_line_ids"`
}

// ConfirmOutboundResponse is the confirmed line and the match it committed
type ConfirmOutboundResponse struct {
	Line     MovementLineResponse `json:"line"`
	Match    MatchResponse        `json:"match"`
	Attempts int                  `json:"attempts"`
}

// LayerReleaseRequest gives quantity back to one layer
type LayerReleaseRequest struct {
	LineID   uuid.UUID       `json:"line_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required,decimal_gt0"`
}

// ReleaseLayersRequest reverses earlier layer draws
type ReleaseLayersRequest struct {
	Records []LayerReleaseRequest `json:"records" binding:"required,min=1,dive"`
}

// JointOutputRequest is one output line of a joint operation. BasisValue
// overrides the basis derived from the line.
type JointOutputRequest struct {
	LineID     uuid.UUID        `json:"line_id" binding:"required"`
	BasisValue *decimal.Decimal `json:"basis_value" binding:"omitempty,decimal_gte0"`
}

// FinalizeJointOperationRequest apportions a joint operation's pool onto its
// draft inbound outputs and completes them. InputCost and Fee may be negative
// (a credit or a recovered by-product value); the pool is split as signed.
type FinalizeJointOperationRequest struct {
	ID           uuid.UUID            `json:"id"`
	Kind         string               `json:"kind" binding:"required,oneof=assembly disassembly outsourcing"`
	InputCost    decimal.Decimal      `json:"input_cost"`
	InputLineIDs []uuid.UUID          `json:"input_line_ids"`
	Fee          decimal.Decimal      `json:"fee"`
	Tax          decimal.Decimal      `json:"tax" binding:"decimal_gte0"`
	Outputs      []JointOutputRequest `json:"outputs" binding:"required,min=1,dive"`
}

// JointOperationResponse is the finalized split
type JointOperationResponse struct {
	ID          uuid.UUID              `json:"id"`
	Kind        string                 `json:"kind"`
	PoolCost    decimal.Decimal        `json:"pool_cost"`
	Allocations []AllocationResponse   `json:"allocations"`
	Lines       []MovementLineResponse `json:"lines"`
}

// MovementLineResponse represents a movement line in API responses
type MovementLineResponse struct {
	ID                uuid.UUID       `json:"id"`
	Direction         string          `json:"direction"`
	State             string          `json:"state"`
	GoodsID           uuid.UUID       `json:"goods_id"`
	AttributeID       *uuid.UUID      `json:"attribute_id,omitempty"`
	Lot               string          `json:"lot,omitempty"`
	WarehouseID       *uuid.UUID      `json:"warehouse_id,omitempty"`
	WarehouseDestID   *uuid.UUID      `json:"warehouse_dest_id,omitempty"`
	LocationID        *uuid.UUID      `json:"location_id,omitempty"`
	Quantity          decimal.Decimal `json:"quantity"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	CompletionTime    *time.Time      `json:"completion_time,omitempty"`
	ExpirationDate    *time.Time      `json:"expiration_date,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// PrecisionRequest overrides the configured decimal places for one goods
type PrecisionRequest struct {
	Quantity int32 `json:"quantity" binding:"gte=0,lte=12"`
	Cost     int32 `json:"cost" binding:"gte=0,lte=12"`
	UnitCost int32 `json:"unit_cost" binding:"gte=0,lte=12"`
}

// UpsertGoodsRequest creates or replaces goods master data
type UpsertGoodsRequest struct {
	Code             string            `json:"code" binding:"required,max=64"`
	Name             string            `json:"name" binding:"required,max=200"`
	ConversionFactor decimal.Decimal   `json:"conversion_factor" binding:"decimal_gte0"`
	LotTracked       bool              `json:"lot_tracked"`
	ForceBatchOne    bool              `json:"force_batch_one"`
	StandardCost     decimal.Decimal   `json:"standard_cost" binding:"decimal_gte0"`
	Precision        *PrecisionRequest `json:"precision"`
}

// GoodsResponse represents goods master data in API responses
type GoodsResponse struct {
	ID               uuid.UUID          `json:"id"`
	Code             string             `json:"code"`
	Name             string             `json:"name"`
	ConversionFactor decimal.Decimal    `json:"conversion_factor"`
	LotTracked       bool               `json:"lot_tracked"`
	ForceBatchOne    bool               `json:"force_batch_one"`
	StandardCost     decimal.Decimal    `json:"standard_cost"`
	Precision        *costing.Precision `json:"precision,omitempty"`
}

// ToMovementLineResponse converts a domain line to a response
func ToMovementLineResponse(l *costing.MovementLine) MovementLineResponse {
	return MovementLineResponse{
		ID:                l.ID,
		Direction:         string(l.Direction),
		State:             string(l.State),
		GoodsID:           l.GoodsID,
		AttributeID:       l.AttributeID,
		Lot:               l.Lot,
		WarehouseID:       l.WarehouseID,
		WarehouseDestID:   l.WarehouseDestID,
		LocationID:        l.LocationID,
		Quantity:          l.Quantity,
		RemainingQuantity: l.RemainingQuantity,
		UnitCost:          l.UnitCost,
		TotalCost:         l.TotalCost,
		CompletionTime:    l.CompletionTime,
		ExpirationDate:    l.ExpirationDate,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
		Version:           l.Version,
	}
}

// ToMatchResponse converts a domain match result to a response
func ToMatchResponse(r *costing.MatchResult) MatchResponse {
	return MatchResponse{
		Records:         toMatchRecordResponses(r.Records),
		TotalCost:       r.TotalCost,
		MatchedQuantity: r.MatchedQuantity,
		Shortage:        r.Shortage,
	}
}

func toMatchRecordResponses(records []costing.MatchRecord) []MatchRecordResponse {
	out := make([]MatchRecordResponse, len(records))
	for i, rec := range records {
		out[i] = MatchRecordResponse{
			SourceLineID:   rec.SourceLineID,
			Quantity:       rec.Quantity,
			AuxQuantity:    rec.AuxQuantity,
			UnitCost:       rec.UnitCost,
			ExpirationDate: rec.ExpirationDate,
			MakeUp:         rec.MakeUp,
		}
	}
	return out
}

func toAllocationResponses(allocations []costing.Allocation) []AllocationResponse {
	out := make([]AllocationResponse, len(allocations))
	for i, a := range allocations {
		out[i] = AllocationResponse{
			LineID:            a.LineID,
			AllocatedCost:     a.AllocatedCost,
			AllocatedUnitCost: a.AllocatedUnitCost,
		}
	}
	return out
}

// ToGoodsResponse converts domain goods to a response
func ToGoodsResponse(g *costing.Goods) GoodsResponse {
	return GoodsResponse{
		ID:               g.ID,
		Code:             g.Code,
		Name:             g.Name,
		ConversionFactor: g.ConversionFactor,
		LotTracked:       g.LotTracked,
		ForceBatchOne:    g.ForceBatchOne,
		StandardCost:     g.StandardCost,
		Precision:        g.Precision,
	}
}
