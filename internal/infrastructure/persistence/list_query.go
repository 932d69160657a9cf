package persistence

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// buildListQuery translates a typed list filter into a parameterized
// query against the replica. Every active filter contributes one join or
// predicate; filters are AND-combined, multiple values within one filter
// are IN-combined. No SQL fragment is assembled from caller input; only
// table aliases derived from a local counter are interpolated.
func buildListQuery(db *gorm.DB, filter catalog.ListFilter) *gorm.DB {
	query := db.Model(&models.ItemModel{}).
		Where("catalog_items.status = ?", filter.EffectiveStatus())

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(catalog_items.title) LIKE ? OR LOWER(catalog_items.description) LIKE ?",
			pattern, pattern,
		)
	}

	joins := 0
	addTaxonomyJoin := func(taxonomy string, slugs []string, ids []int64) {
		if len(slugs) == 0 && len(ids) == 0 {
			return
		}
		joins++
		tr := fmt.Sprintf("tr%d", joins)
		tt := fmt.Sprintf("tt%d", joins)
		tm := fmt.Sprintf("t%d", joins)

		query = query.Joins(fmt.Sprintf(
			"JOIN term_relationships %s ON %s.item_id = catalog_items.id", tr, tr))
		query = query.Joins(fmt.Sprintf(
			"JOIN term_taxonomies %s ON %s.id = %s.term_taxonomy_id AND %s.taxonomy = ?",
			tt, tt, tr, tt), taxonomy)
		query = query.Joins(fmt.Sprintf(
			"JOIN terms %s ON %s.id = %s.term_id", tm, tm, tt))

		switch {
		case len(slugs) > 0 && len(ids) > 0:
			query = query.Where(fmt.Sprintf("%s.slug IN ? OR %s.id IN ?", tm, tm), slugs, ids)
		case len(slugs) > 0:
			query = query.Where(fmt.Sprintf("%s.slug IN ?", tm), slugs)
		default:
			query = query.Where(fmt.Sprintf("%s.id IN ?", tm), ids)
		}
	}

	addTaxonomyJoin(catalog.TaxonomyCategory, filter.CategorySlugs, filter.CategoryIDs)
	addTaxonomyJoin(catalog.TaxonomyTag, filter.TagSlugs, nil)
	addTaxonomyJoin(catalog.TaxonomyBrand, filter.BrandSlugs, nil)
	addTaxonomyJoin(catalog.TaxonomyLocation, filter.LocationSlugs, nil)

	// Deterministic join order for attribute facets keeps generated SQL
	// stable for identical filters.
	attrs := make([]string, 0, len(filter.Attributes))
	for attr := range filter.Attributes {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)
	for _, attr := range attrs {
		addTaxonomyJoin(catalog.AttributeTaxonomy(attr), filter.Attributes[attr], nil)
	}

	if filter.MinPrice != nil || filter.MaxPrice != nil || filter.OnSale != nil || filter.StockStatus != "" {
		query = query.Joins("JOIN product_lookup pl ON pl.item_id = catalog_items.id")
		// Price bounds match when the item's price range intersects the
		// requested interval.
		if filter.MinPrice != nil {
			query = query.Where("pl.max_price >= ?", *filter.MinPrice)
		}
		if filter.MaxPrice != nil {
			query = query.Where("pl.min_price <= ?", *filter.MaxPrice)
		}
		if filter.OnSale != nil {
			query = query.Where("pl.on_sale = ?", *filter.OnSale)
		}
		if filter.StockStatus != "" {
			query = query.Where("pl.stock_status = ?", filter.StockStatus)
		}
	}

	if filter.VendorID != 0 {
		query = query.
			Joins("JOIN item_meta vm ON vm.item_id = catalog_items.id AND vm.meta_key = ?", catalog.MetaKeyVendorID).
			Where("vm.meta_value = ?", strconv.FormatInt(filter.VendorID, 10))
	}

	return query
}
