package persistence

import (
	"context"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormMetaRepository implements catalog.MetaRepository using GORM
type GormMetaRepository struct {
	db *gorm.DB
}

// NewGormMetaRepository creates a new GormMetaRepository
func NewGormMetaRepository(db *gorm.DB) *GormMetaRepository {
	return &GormMetaRepository{db: db}
}

// Replace rewrites the full meta set of an item: keys absent from meta
// are deleted, present keys are upserted in a single batch statement.
// Both statements are idempotent, so a partial failure is recovered by
// re-running the sync for the item.
func (r *GormMetaRepository) Replace(ctx context.Context, itemID int64, meta map[string]string) error {
	if len(meta) == 0 {
		return r.DeleteByItemID(ctx, itemID)
	}

	keys := make([]string, 0, len(meta))
	for key := range meta {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if err := r.db.WithContext(ctx).
		Where("item_id = ? AND meta_key NOT IN ?", itemID, keys).
		Delete(&models.ItemMetaModel{}).Error; err != nil {
		return err
	}

	rows := make([]models.ItemMetaModel, 0, len(meta))
	for _, key := range keys {
		rows = append(rows, models.ItemMetaModel{
			ItemID: itemID,
			Key:    key,
			Value:  meta[key],
		})
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_id"}, {Name: "meta_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"meta_value"}),
	}).Create(&rows).Error
}

// DeleteByItemID removes all meta rows of an item
func (r *GormMetaRepository) DeleteByItemID(ctx context.Context, itemID int64) error {
	return r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Delete(&models.ItemMetaModel{}).Error
}

// FindByItemIDs returns the meta bag of each item in one query
func (r *GormMetaRepository) FindByItemIDs(ctx context.Context, itemIDs []int64) (map[int64]map[string]string, error) {
	result := make(map[int64]map[string]string, len(itemIDs))
	if len(itemIDs) == 0 {
		return result, nil
	}

	var rows []models.ItemMetaModel
	if err := r.db.WithContext(ctx).
		Where("item_id IN ?", itemIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		bag, ok := result[row.ItemID]
		if !ok {
			bag = make(map[string]string)
			result[row.ItemID] = bag
		}
		bag[row.Key] = row.Value
	}
	return result, nil
}

// ValuesByItemIDs returns one key's value per item in one query
func (r *GormMetaRepository) ValuesByItemIDs(ctx context.Context, key string, itemIDs []int64) (map[int64]string, error) {
	result := make(map[int64]string, len(itemIDs))
	if len(itemIDs) == 0 {
		return result, nil
	}

	var rows []models.ItemMetaModel
	if err := r.db.WithContext(ctx).
		Where("meta_key = ? AND item_id IN ?", key, itemIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.ItemID] = row.Value
	}
	return result, nil
}

// Ensure GormMetaRepository implements catalog.MetaRepository
var _ catalog.MetaRepository = (*GormMetaRepository)(nil)
