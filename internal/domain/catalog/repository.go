package catalog

import "context"

// ItemRepository persists replica item rows and serves the list query.
type ItemRepository interface {
	FindByID(ctx context.Context, id int64) (*Item, error)
	FindByIDs(ctx context.Context, ids []int64) ([]Item, error)
	// Upsert inserts the row or overwrites its mutable fields in place;
	// the id is never touched on conflict.
	Upsert(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id int64) error

	// Count counts items matching the filter.
	Count(ctx context.Context, filter ListFilter) (int64, error)
	// ListIDs returns one page of matching item edges, newest-first
	// (created_at DESC, id DESC), using offset pagination.
	ListIDs(ctx context.Context, filter ListFilter, limit, offset int) ([]ListEdge, error)
	// ListIDsAfter returns up to limit matching edges strictly after the
	// keyset cursor position, same ordering as ListIDs.
	ListIDsAfter(ctx context.Context, filter ListFilter, cursor Cursor, limit int) ([]ListEdge, error)
}

// MetaRepository persists scalar item attributes.
type MetaRepository interface {
	// Replace rewrites the full meta set of an item: keys present in
	// meta are upserted, keys absent from it are deleted. No duplicate
	// rows per key can survive.
	Replace(ctx context.Context, itemID int64, meta map[string]string) error
	DeleteByItemID(ctx context.Context, itemID int64) error

	// FindByItemIDs returns the meta bag of each item in one query.
	FindByItemIDs(ctx context.Context, itemIDs []int64) (map[int64]map[string]string, error)
	// ValuesByItemIDs returns one key's value per item in one query.
	ValuesByItemIDs(ctx context.Context, key string, itemIDs []int64) (map[int64]string, error)
}

// TaxonomyRepository persists terms, term-taxonomy rows and the
// item-term relationships.
type TaxonomyRepository interface {
	// EnsureTerm creates the term and its taxonomy row on demand and
	// returns the replica's term-taxonomy id for (term, taxonomy).
	EnsureTerm(ctx context.Context, taxonomy string, ref TermRef) (int64, error)
	// RelatedTermTaxonomyIDs reads the current relationship set of an
	// item within one taxonomy, at execution time.
	RelatedTermTaxonomyIDs(ctx context.Context, itemID int64, taxonomy string) ([]int64, error)
	// RelatedTaxonomies returns the distinct taxonomy names the item
	// currently holds links in. Needed to clear dynamic attribute
	// taxonomies a newer snapshot no longer carries.
	RelatedTaxonomies(ctx context.Context, itemID int64) ([]string, error)
	AddRelationships(ctx context.Context, itemID int64, termTaxonomyIDs []int64) error
	RemoveRelationships(ctx context.Context, itemID int64, termTaxonomyIDs []int64) error
	DeleteByItemID(ctx context.Context, itemID int64) error
	// RefreshCounts recomputes the member counts of term-taxonomy rows.
	RefreshCounts(ctx context.Context, termTaxonomyIDs []int64) error

	// TermsByItemIDs returns each item's terms grouped by taxonomy, in
	// one query.
	TermsByItemIDs(ctx context.Context, itemIDs []int64) (map[int64]map[string][]Term, error)
}

// AttachmentRepository persists replicated media rows.
type AttachmentRepository interface {
	Upsert(ctx context.Context, attachment *Attachment) error
	// FindByItemIDs returns each item's attachments, position-ordered,
	// in one query. Rows with an empty URL are never returned.
	FindByItemIDs(ctx context.Context, itemIDs []int64) (map[int64][]Attachment, error)
}

// LookupRepository persists the pre-aggregated product lookup rows.
type LookupRepository interface {
	Upsert(ctx context.Context, lookup *ProductLookup) error
	DeleteByItemID(ctx context.Context, itemID int64) error
	FindByItemIDs(ctx context.Context, itemIDs []int64) (map[int64]ProductLookup, error)
}
