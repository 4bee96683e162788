package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// layerOrder mirrors costing.LayerLess
const layerOrder = "location_id ASC NULLS LAST, expiration_date ASC NULLS LAST, completion_time ASC, id ASC"

// GormMovementLineRepository implements costing.MovementLineRepository using GORM
type GormMovementLineRepository struct {
	db *gorm.DB
}

// NewGormMovementLineRepository creates a new GormMovementLineRepository
func NewGormMovementLineRepository(db *gorm.DB) *GormMovementLineRepository {
	return &GormMovementLineRepository{db: db}
}

// FindByID finds a movement line by its ID
func (r *GormMovementLineRepository) FindByID(ctx context.Context, id uuid.UUID) (*costing.MovementLine, error) {
	var model models.MovementLineModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the lines with the given ids; missing ids are skipped
func (r *GormMovementLineRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]costing.MovementLine, error) {
	if len(ids) == 0 {
		return []costing.MovementLine{}, nil
	}
	var rows []models.MovementLineModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainLines(rows), nil
}

// FindOpenLayers lists done inbound lines with remaining quantity in the warehouse
func (r *GormMovementLineRepository) FindOpenLayers(ctx context.Context, q costing.LayerQuery) ([]costing.MovementLine, error) {
	query := r.db.WithContext(ctx).
		Model(&models.MovementLineModel{}).
		Where("goods_id = ? AND direction = ? AND state = ?", q.GoodsID, costing.DirectionIn, costing.LineStateDone).
		Where("warehouse_dest_id = ?", q.WarehouseDestID).
		Where("remaining_quantity > 0")

	if q.AttributeID != nil {
		query = query.Where("attribute_id = ?", *q.AttributeID)
	}
	if q.LocationID != nil {
		query = query.Where("location_id = ?", *q.LocationID)
	}
	if len(q.ExcludeLineIDs) > 0 {
		query = query.Where("id NOT IN ?", q.ExcludeLineIDs)
	}

	var rows []models.MovementLineModel
	if err := query.Order(layerOrder).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainLines(rows), nil
}

// FindLatestInbound returns the most recently completed inbound line
func (r *GormMovementLineRepository) FindLatestInbound(ctx context.Context, goodsID, warehouseDestID uuid.UUID) (*costing.MovementLine, error) {
	var model models.MovementLineModel
	err := r.db.WithContext(ctx).
		Where("goods_id = ? AND direction = ? AND state = ?", goodsID, costing.DirectionIn, costing.LineStateDone).
		Where("warehouse_dest_id = ?", warehouseDestID).
		Order("completion_time DESC, id DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// lotOrder ranks open layers first, then exhausted done lines, then drafts
const lotOrder = "CASE WHEN state = 'done' AND remaining_quantity > 0 THEN 0 WHEN state = 'done' THEN 1 ELSE 2 END, " +
	"completion_time ASC NULLS LAST, id ASC"

// FindInboundByLot returns the inbound line carrying the lot. An earlier
// receipt of the same lot that is already used up never hides a later open one.
func (r *GormMovementLineRepository) FindInboundByLot(ctx context.Context, goodsID uuid.UUID, lot string) (*costing.MovementLine, error) {
	var model models.MovementLineModel
	err := r.db.WithContext(ctx).
		Where("goods_id = ? AND direction = ? AND lot = ?", goodsID, costing.DirectionIn, lot).
		Order(lotOrder).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new movement line
func (r *GormMovementLineRepository) Create(ctx context.Context, line *costing.MovementLine) error {
	if line.Version == 0 {
		line.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(models.MovementLineModelFromDomain(line)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Save updates a line guarded by its version and bumps the version on success
func (r *GormMovementLineRepository) Save(ctx context.Context, line *costing.MovementLine) error {
	m := models.MovementLineModelFromDomain(line)
	next := line.Version + 1

	result := r.db.WithContext(ctx).
		Model(&models.MovementLineModel{}).
		Where("id = ? AND version = ?", line.ID, line.Version).
		Updates(map[string]any{
			"state":              m.State,
			"lot":                m.Lot,
			"attribute_id":       m.AttributeID,
			"warehouse_id":       m.WarehouseID,
			"warehouse_dest_id":  m.WarehouseDestID,
			"location_id":        m.LocationID,
			"quantity":           m.Quantity,
			"remaining_quantity": m.RemainingQuantity,
			"unit_cost":          m.UnitCost,
			"total_cost":         m.TotalCost,
			"completion_time":    m.CompletionTime,
			"expiration_date":    m.ExpirationDate,
			"updated_at":         m.UpdatedAt,
			"version":            next,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("save movement line %s at version %d: %w", line.ID, line.Version, shared.ErrConcurrencyConflict)
	}
	line.Version = next
	return nil
}

// ConsumeLayers decrements remaining quantities in one transaction. Each
// decrement only applies while the layer still holds enough, so a concurrent
// consumer that got there first turns into ErrConcurrencyConflict.
func (r *GormMovementLineRepository) ConsumeLayers(ctx context.Context, consumptions []costing.LayerConsumption) error {
	if len(consumptions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for _, c := range consumptions {
			if c.Quantity.Sign() <= 0 {
				return shared.NewDomainError("INVALID_QUANTITY", "Consumed quantity must be positive")
			}
			result := tx.Model(&models.MovementLineModel{}).
				Where("id = ? AND direction = ? AND state = ? AND remaining_quantity >= ?",
					c.LineID, costing.DirectionIn, costing.LineStateDone, c.Quantity).
				Updates(map[string]any{
					"remaining_quantity": gorm.Expr("remaining_quantity - ?", c.Quantity),
					"version":            gorm.Expr("version + 1"),
					"updated_at":         now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("consume %s from layer %s: %w", c.Quantity, c.LineID, shared.ErrConcurrencyConflict)
			}
		}
		return nil
	})
}

// ReleaseLayers gives quantity back to layers, never beyond their quantity
func (r *GormMovementLineRepository) ReleaseLayers(ctx context.Context, consumptions []costing.LayerConsumption) error {
	if len(consumptions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for _, c := range consumptions {
			if c.Quantity.Sign() <= 0 {
				return shared.NewDomainError("INVALID_QUANTITY", "Released quantity must be positive")
			}
			result := tx.Model(&models.MovementLineModel{}).
				Where("id = ? AND direction = ? AND state = ? AND remaining_quantity + ? <= quantity",
					c.LineID, costing.DirectionIn, costing.LineStateDone, c.Quantity).
				Updates(map[string]any{
					"remaining_quantity": gorm.Expr("remaining_quantity + ?", c.Quantity),
					"version":            gorm.Expr("version + 1"),
					"updated_at":         now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("release %s to layer %s: %w", c.Quantity, c.LineID, errReleaseExceedsQuantity)
			}
		}
		return nil
	})
}

var errReleaseExceedsQuantity = shared.NewDomainError("RELEASE_EXCEEDS_QUANTITY", "Released quantity exceeds the layer quantity")

// Transaction runs fn against a repository bound to a single transaction
func (r *GormMovementLineRepository) Transaction(ctx context.Context, fn func(repo costing.MovementLineRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormMovementLineRepository{db: tx})
	})
}

func toDomainLines(rows []models.MovementLineModel) []costing.MovementLine {
	lines := make([]costing.MovementLine, len(rows))
	for i := range rows {
		lines[i] = *rows[i].ToDomain()
	}
	return lines
}

var _ costing.MovementLineRepository = (*GormMovementLineRepository)(nil)
