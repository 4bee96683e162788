package models

import (
	"time"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementLineModel is the persistence model for a movement line.
// Done inbound rows with remaining_quantity > 0 are the open cost layers.
type MovementLineModel struct {
	VersionedModel
	Direction         string          `gorm:"type:varchar(16);not null;index:idx_movement_lines_layer,priority:2"`
	State             string          `gorm:"type:varchar(16);not null;index:idx_movement_lines_layer,priority:3"`
	GoodsID           uuid.UUID       `gorm:"type:uuid;not null;index:idx_movement_lines_layer,priority:1"`
	AttributeID       *uuid.UUID      `gorm:"type:uuid"`
	Lot               string          `gorm:"type:varchar(64);index"`
	WarehouseID       *uuid.UUID      `gorm:"type:uuid"`
	WarehouseDestID   *uuid.UUID      `gorm:"type:uuid;index"`
	LocationID        *uuid.UUID      `gorm:"type:uuid"`
	Quantity          decimal.Decimal `gorm:"type:decimal(24,8);not null"`
	RemainingQuantity decimal.Decimal `gorm:"type:decimal(24,8);not null;default:0"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(24,8);not null;default:0"`
	TotalCost         decimal.Decimal `gorm:"type:decimal(24,8);not null;default:0"`
	CompletionTime    *time.Time
	ExpirationDate    *time.Time `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (MovementLineModel) TableName() string {
	return "movement_lines"
}

// ToDomain converts the persistence model to a domain MovementLine
func (m *MovementLineModel) ToDomain() *costing.MovementLine {
	return &costing.MovementLine{
		BaseEntity:        m.BaseModel.ToDomain(),
		Direction:         costing.Direction(m.Direction),
		State:             costing.LineState(m.State),
		GoodsID:           m.GoodsID,
		AttributeID:       m.AttributeID,
		Lot:               m.Lot,
		WarehouseID:       m.WarehouseID,
		WarehouseDestID:   m.WarehouseDestID,
		LocationID:        m.LocationID,
		Quantity:          m.Quantity,
		RemainingQuantity: m.RemainingQuantity,
		UnitCost:          m.UnitCost,
		TotalCost:         m.TotalCost,
		CompletionTime:    m.CompletionTime,
		ExpirationDate:    m.ExpirationDate,
		Version:           m.Version,
	}
}

// FromDomain populates the persistence model from a domain MovementLine
func (m *MovementLineModel) FromDomain(l *costing.MovementLine) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.Version = l.Version
	m.Direction = string(l.Direction)
	m.State = string(l.State)
	m.GoodsID = l.GoodsID
	m.AttributeID = l.AttributeID
	m.Lot = l.Lot
	m.WarehouseID = l.WarehouseID
	m.WarehouseDestID = l.WarehouseDestID
	m.LocationID = l.LocationID
	m.Quantity = l.Quantity
	m.RemainingQuantity = l.RemainingQuantity
	m.UnitCost = l.UnitCost
	m.TotalCost = l.TotalCost
	m.CompletionTime = l.CompletionTime
	m.ExpirationDate = l.ExpirationDate
}

// MovementLineModelFromDomain creates a persistence model from a domain MovementLine
func MovementLineModelFromDomain(l *costing.MovementLine) *MovementLineModel {
	m := &MovementLineModel{}
	m.FromDomain(l)
	return m
}

// GoodsModel is the persistence model for goods master data
type GoodsModel struct {
	BaseModel
	Code              string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name              string          `gorm:"type:varchar(200);not null"`
	ConversionFactor  decimal.Decimal `gorm:"type:decimal(24,8);not null;default:1"`
	LotTracked        bool            `gorm:"not null;default:false"`
	ForceBatchOne     bool            `gorm:"not null;default:false"`
	StandardCost      decimal.Decimal `gorm:"type:decimal(24,8);not null;default:0"`
	QuantityPrecision *int32
	CostPrecision     *int32
	UnitCostPrecision *int32
}

// TableName returns the table name for GORM
func (GoodsModel) TableName() string {
	return "goods"
}

// ToDomain converts the persistence model to domain Goods.
// A precision override is only kept when all three places are set.
func (m *GoodsModel) ToDomain() *costing.Goods {
	g := &costing.Goods{
		ID:               m.ID,
		Code:             m.Code,
		Name:             m.Name,
		ConversionFactor: m.ConversionFactor,
		LotTracked:       m.LotTracked,
		ForceBatchOne:    m.ForceBatchOne,
		StandardCost:     m.StandardCost,
	}
	if m.QuantityPrecision != nil && m.CostPrecision != nil && m.UnitCostPrecision != nil {
		g.Precision = &costing.Precision{
			Quantity: *m.QuantityPrecision,
			Cost:     *m.CostPrecision,
			UnitCost: *m.UnitCostPrecision,
		}
	}
	return g
}

// GoodsModelFromDomain creates a persistence model from domain Goods
func GoodsModelFromDomain(g *costing.Goods) *GoodsModel {
	now := time.Now()
	m := &GoodsModel{
		BaseModel:        BaseModel{ID: g.ID, CreatedAt: now, UpdatedAt: now},
		Code:             g.Code,
		Name:             g.Name,
		ConversionFactor: g.ConversionFactor,
		LotTracked:       g.LotTracked,
		ForceBatchOne:    g.ForceBatchOne,
		StandardCost:     g.StandardCost,
	}
	if g.Precision != nil {
		q, c, u := g.Precision.Quantity, g.Precision.Cost, g.Precision.UnitCost
		m.QuantityPrecision = &q
		m.CostPrecision = &c
		m.UnitCostPrecision = &u
	}
	return m
}
