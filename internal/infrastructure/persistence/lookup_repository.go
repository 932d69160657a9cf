package persistence

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormLookupRepository implements catalog.LookupRepository using GORM
type GormLookupRepository struct {
	db *gorm.DB
}

// NewGormLookupRepository creates a new GormLookupRepository
func NewGormLookupRepository(db *gorm.DB) *GormLookupRepository {
	return &GormLookupRepository{db: db}
}

// Upsert inserts or overwrites the lookup row of an item
func (r *GormLookupRepository) Upsert(ctx context.Context, lookup *catalog.ProductLookup) error {
	var model models.ProductLookupModel
	model.FromDomain(lookup)

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sku", "min_price", "max_price", "on_sale",
			"stock_quantity", "stock_status", "rating", "total_sales",
		}),
	}).Create(&model).Error
}

// DeleteByItemID removes the lookup row of an item
func (r *GormLookupRepository) DeleteByItemID(ctx context.Context, itemID int64) error {
	return r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Delete(&models.ProductLookupModel{}).Error
}

// FindByItemIDs returns the lookup row of each item in one query
func (r *GormLookupRepository) FindByItemIDs(ctx context.Context, itemIDs []int64) (map[int64]catalog.ProductLookup, error) {
	result := make(map[int64]catalog.ProductLookup, len(itemIDs))
	if len(itemIDs) == 0 {
		return result, nil
	}

	var rows []models.ProductLookupModel
	if err := r.db.WithContext(ctx).
		Where("item_id IN ?", itemIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	for i := range rows {
		result[rows[i].ItemID] = rows[i].ToDomain()
	}
	return result, nil
}

// Ensure GormLookupRepository implements catalog.LookupRepository
var _ catalog.LookupRepository = (*GormLookupRepository)(nil)
