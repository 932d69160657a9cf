package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormTaxonomyRepository implements catalog.TaxonomyRepository using GORM
type GormTaxonomyRepository struct {
	db *gorm.DB
}

// NewGormTaxonomyRepository creates a new GormTaxonomyRepository
func NewGormTaxonomyRepository(db *gorm.DB) *GormTaxonomyRepository {
	return &GormTaxonomyRepository{db: db}
}

// EnsureTerm creates the term and its taxonomy row on demand and
// returns the replica's term-taxonomy id for (term, taxonomy). The id
// is always resolved by lookup; the upstream term id is never assumed
// to double as the term-taxonomy id.
func (r *GormTaxonomyRepository) EnsureTerm(ctx context.Context, taxonomy string, ref catalog.TermRef) (int64, error) {
	term := models.TermModel{ID: ref.ID, Name: ref.Name, Slug: ref.Slug}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "slug"}),
	}).Create(&term).Error; err != nil {
		return 0, err
	}

	var tt models.TermTaxonomyModel
	err := r.db.WithContext(ctx).
		Where("term_id = ? AND taxonomy = ?", ref.ID, taxonomy).
		First(&tt).Error
	if err == nil {
		return tt.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	tt = models.TermTaxonomyModel{TermID: ref.ID, Taxonomy: taxonomy}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "term_id"}, {Name: "taxonomy"}},
		DoNothing: true,
	}).Create(&tt).Error; err != nil {
		return 0, err
	}

	// Re-read to cover the DoNothing path when a racing sync created the
	// row between our lookup and insert.
	if err := r.db.WithContext(ctx).
		Where("term_id = ? AND taxonomy = ?", ref.ID, taxonomy).
		First(&tt).Error; err != nil {
		return 0, err
	}
	return tt.ID, nil
}

// RelatedTermTaxonomyIDs reads the current relationship set of an item
// within one taxonomy, at execution time
func (r *GormTaxonomyRepository) RelatedTermTaxonomyIDs(ctx context.Context, itemID int64, taxonomy string) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.TermRelationshipModel{}).
		Joins("JOIN term_taxonomies tt ON tt.id = term_relationships.term_taxonomy_id").
		Where("term_relationships.item_id = ? AND tt.taxonomy = ?", itemID, taxonomy).
		Pluck("term_relationships.term_taxonomy_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// RelatedTaxonomies returns the distinct taxonomy names the item
// currently holds links in
func (r *GormTaxonomyRepository) RelatedTaxonomies(ctx context.Context, itemID int64) ([]string, error) {
	var taxonomies []string
	err := r.db.WithContext(ctx).
		Model(&models.TermRelationshipModel{}).
		Distinct("tt.taxonomy").
		Joins("JOIN term_taxonomies tt ON tt.id = term_relationships.term_taxonomy_id").
		Where("term_relationships.item_id = ?", itemID).
		Pluck("tt.taxonomy", &taxonomies).Error
	if err != nil {
		return nil, err
	}
	return taxonomies, nil
}

// AddRelationships links an item to term-taxonomy rows. Already-present
// links are ignored, which keeps racing syncs safe.
func (r *GormTaxonomyRepository) AddRelationships(ctx context.Context, itemID int64, termTaxonomyIDs []int64) error {
	if len(termTaxonomyIDs) == 0 {
		return nil
	}

	rows := make([]models.TermRelationshipModel, 0, len(termTaxonomyIDs))
	for _, ttID := range termTaxonomyIDs {
		rows = append(rows, models.TermRelationshipModel{ItemID: itemID, TermTaxonomyID: ttID})
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		DoNothing: true,
	}).Create(&rows).Error
}

// RemoveRelationships unlinks an item from term-taxonomy rows
func (r *GormTaxonomyRepository) RemoveRelationships(ctx context.Context, itemID int64, termTaxonomyIDs []int64) error {
	if len(termTaxonomyIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("item_id = ? AND term_taxonomy_id IN ?", itemID, termTaxonomyIDs).
		Delete(&models.TermRelationshipModel{}).Error
}

// DeleteByItemID removes all relationships of an item
func (r *GormTaxonomyRepository) DeleteByItemID(ctx context.Context, itemID int64) error {
	return r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Delete(&models.TermRelationshipModel{}).Error
}

// RefreshCounts recomputes the member counts of term-taxonomy rows
func (r *GormTaxonomyRepository) RefreshCounts(ctx context.Context, termTaxonomyIDs []int64) error {
	if len(termTaxonomyIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.TermTaxonomyModel{}).
		Where("id IN ?", termTaxonomyIDs).
		Update("count", gorm.Expr(
			"(SELECT COUNT(*) FROM term_relationships WHERE term_relationships.term_taxonomy_id = term_taxonomies.id)",
		)).Error
}

// termRow is the join projection used by TermsByItemIDs
type termRow struct {
	ItemID   int64
	Taxonomy string
	ID       int64
	Name     string
	Slug     string
}

// TermsByItemIDs returns each item's terms grouped by taxonomy, in one query
func (r *GormTaxonomyRepository) TermsByItemIDs(ctx context.Context, itemIDs []int64) (map[int64]map[string][]catalog.Term, error) {
	result := make(map[int64]map[string][]catalog.Term, len(itemIDs))
	if len(itemIDs) == 0 {
		return result, nil
	}

	var rows []termRow
	err := r.db.WithContext(ctx).
		Model(&models.TermRelationshipModel{}).
		Select("term_relationships.item_id", "tt.taxonomy", "t.id", "t.name", "t.slug").
		Joins("JOIN term_taxonomies tt ON tt.id = term_relationships.term_taxonomy_id").
		Joins("JOIN terms t ON t.id = tt.term_id").
		Where("term_relationships.item_id IN ?", itemIDs).
		Order("t.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		byTaxonomy, ok := result[row.ItemID]
		if !ok {
			byTaxonomy = make(map[string][]catalog.Term)
			result[row.ItemID] = byTaxonomy
		}
		byTaxonomy[row.Taxonomy] = append(byTaxonomy[row.Taxonomy], catalog.Term{
			ID:   row.ID,
			Name: row.Name,
			Slug: row.Slug,
		})
	}
	return result, nil
}

// Ensure GormTaxonomyRepository implements catalog.TaxonomyRepository
var _ catalog.TaxonomyRepository = (*GormTaxonomyRepository)(nil)
