package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormItemRepository implements catalog.ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByID finds an item by its upstream id
func (r *GormItemRepository) FindByID(ctx context.Context, id int64) (*catalog.Item, error) {
	var model models.ItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple items by their ids
func (r *GormItemRepository) FindByIDs(ctx context.Context, ids []int64) ([]catalog.Item, error) {
	if len(ids) == 0 {
		return []catalog.Item{}, nil
	}

	var rows []models.ItemModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]catalog.Item, 0, len(rows))
	for i := range rows {
		items = append(items, *rows[i].ToDomain())
	}
	return items, nil
}

// Upsert inserts the item row or overwrites its mutable fields in place.
// The id column is never part of the update set.
func (r *GormItemRepository) Upsert(ctx context.Context, item *catalog.Item) error {
	var model models.ItemModel
	model.FromDomain(item)

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "slug", "description", "short_description",
			"status", "parent_id", "vendor_id", "created_at", "modified_at",
		}),
	}).Create(&model).Error
}

// Delete deletes an item row
func (r *GormItemRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.ItemModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts items matching the filter
func (r *GormItemRepository) Count(ctx context.Context, filter catalog.ListFilter) (int64, error) {
	var count int64
	query := buildListQuery(r.db.WithContext(ctx), filter)
	if err := query.Distinct("catalog_items.id").Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListIDs returns one page of matching item edges using offset pagination
func (r *GormItemRepository) ListIDs(ctx context.Context, filter catalog.ListFilter, limit, offset int) ([]catalog.ListEdge, error) {
	query := buildListQuery(r.db.WithContext(ctx), filter).
		Distinct("catalog_items.id", "catalog_items.created_at").
		Order("catalog_items.created_at DESC").
		Order("catalog_items.id DESC").
		Limit(limit).
		Offset(offset)

	return scanEdges(query)
}

// ListIDsAfter returns matching item edges strictly after the keyset cursor
func (r *GormItemRepository) ListIDsAfter(ctx context.Context, filter catalog.ListFilter, cursor catalog.Cursor, limit int) ([]catalog.ListEdge, error) {
	query := buildListQuery(r.db.WithContext(ctx), filter).
		Where(
			"catalog_items.created_at < ? OR (catalog_items.created_at = ? AND catalog_items.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		).
		Distinct("catalog_items.id", "catalog_items.created_at").
		Order("catalog_items.created_at DESC").
		Order("catalog_items.id DESC").
		Limit(limit)

	return scanEdges(query)
}

func scanEdges(query *gorm.DB) ([]catalog.ListEdge, error) {
	var rows []models.ItemModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	edges := make([]catalog.ListEdge, 0, len(rows))
	for _, row := range rows {
		edges = append(edges, catalog.ListEdge{ID: row.ID, CreatedAt: row.CreatedAt})
	}
	return edges, nil
}

// Ensure GormItemRepository implements catalog.ItemRepository
var _ catalog.ItemRepository = (*GormItemRepository)(nil)
