package costing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LayerQuery filters open cost layers
type LayerQuery struct {
	GoodsID         uuid.UUID
	WarehouseDestID uuid.UUID
	AttributeID     *uuid.UUID // nil matches any attribute
	LocationID      *uuid.UUID // nil matches any location
	ExcludeLineIDs  []uuid.UUID
}

// LedgerReader is the read side of the movement ledger
type LedgerReader interface {
	// FindOpenLayers lists done inbound lines with remaining quantity above zero
	// matching the query, ordered as LayerLess orders them
	FindOpenLayers(ctx context.Context, q LayerQuery) ([]MovementLine, error)

	// FindLatestInbound returns the done inbound line with the greatest
	// (completion time, id) for the goods and warehouse, or shared.ErrNotFound
	FindLatestInbound(ctx context.Context, goodsID, warehouseDestID uuid.UUID) (*MovementLine, error)

	// FindInboundByLot returns the inbound line carrying the lot, or shared.ErrNotFound
	FindInboundByLot(ctx context.Context, goodsID uuid.UUID, lot string) (*MovementLine, error)

	// FindByIDs returns the lines with the given ids in unspecified order
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]MovementLine, error)
}

// GoodsReader reads goods master data
type GoodsReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Goods, error)
}

// LayerConsumption is one remaining-quantity decrement
type LayerConsumption struct {
	LineID   uuid.UUID
	Quantity decimal.Decimal
}

// LayerCommitter applies remaining-quantity changes.
// ConsumeLayers re-validates sufficiency under a per-layer compare-and-swap and
// applies all decrements or none; a layer that no longer has enough yields
// shared.ErrConcurrencyConflict.
type LayerCommitter interface {
	ConsumeLayers(ctx context.Context, consumptions []LayerConsumption) error
	ReleaseLayers(ctx context.Context, consumptions []LayerConsumption) error
}

// MovementLineRepository is the full ledger store used by the application layer
type MovementLineRepository interface {
	LedgerReader
	LayerCommitter

	FindByID(ctx context.Context, id uuid.UUID) (*MovementLine, error)
	Create(ctx context.Context, line *MovementLine) error
	// Save persists a line and fails with shared.ErrConcurrencyConflict when
	// its version moved since it was read
	Save(ctx context.Context, line *MovementLine) error
	// Transaction runs fn against a repository bound to one transaction
	Transaction(ctx context.Context, fn func(repo MovementLineRepository) error) error
}
