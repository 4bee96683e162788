package persistence

import (
	"context"
	"errors"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormGoodsRepository reads and writes goods master data using GORM
type GormGoodsRepository struct {
	db *gorm.DB
}

// NewGormGoodsRepository creates a new GormGoodsRepository
func NewGormGoodsRepository(db *gorm.DB) *GormGoodsRepository {
	return &GormGoodsRepository{db: db}
}

// FindByID finds goods by ID
func (r *GormGoodsRepository) FindByID(ctx context.Context, id uuid.UUID) (*costing.Goods, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByCode finds goods by their unique code
func (r *GormGoodsRepository) FindByCode(ctx context.Context, code string) (*costing.Goods, error) {
	return r.findOne(ctx, "code = ?", code)
}

func (r *GormGoodsRepository) findOne(ctx context.Context, cond string, arg any) (*costing.Goods, error) {
	var model models.GoodsModel
	if err := r.db.WithContext(ctx).First(&model, cond, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save inserts or updates goods master data
func (r *GormGoodsRepository) Save(ctx context.Context, goods *costing.Goods) error {
	if goods.ID == uuid.Nil {
		goods.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Save(models.GoodsModelFromDomain(goods)).Error
}

var _ costing.GoodsReader = (*GormGoodsRepository)(nil)
