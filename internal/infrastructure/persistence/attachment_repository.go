package persistence

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormAttachmentRepository implements catalog.AttachmentRepository using GORM
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewGormAttachmentRepository creates a new GormAttachmentRepository
func NewGormAttachmentRepository(db *gorm.DB) *GormAttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

// Upsert inserts or overwrites an attachment row by its upstream id
func (r *GormAttachmentRepository) Upsert(ctx context.Context, attachment *catalog.Attachment) error {
	var model models.AttachmentModel
	model.FromDomain(attachment)

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"item_id", "url", "alt", "position"}),
	}).Create(&model).Error
}

// FindByItemIDs returns each item's attachments, position-ordered, in
// one query. Rows with an empty URL never reach callers.
func (r *GormAttachmentRepository) FindByItemIDs(ctx context.Context, itemIDs []int64) (map[int64][]catalog.Attachment, error) {
	result := make(map[int64][]catalog.Attachment, len(itemIDs))
	if len(itemIDs) == 0 {
		return result, nil
	}

	var rows []models.AttachmentModel
	if err := r.db.WithContext(ctx).
		Where("item_id IN ? AND url <> ''", itemIDs).
		Order("item_id ASC, position ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	for i := range rows {
		result[rows[i].ItemID] = append(result[rows[i].ItemID], rows[i].ToDomain())
	}
	return result, nil
}

// Ensure GormAttachmentRepository implements catalog.AttachmentRepository
var _ catalog.AttachmentRepository = (*GormAttachmentRepository)(nil)
