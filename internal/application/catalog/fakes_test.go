package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// The fakes below implement the replica repositories in memory with the
// same contracts the GORM implementations honor. They let sync and list
// behavior be tested end to end without a database.

type fakeItemRepo struct {
	mu    sync.Mutex
	items map[int64]catalog.Item
	lists int
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: map[int64]catalog.Item{}}
}

func (r *fakeItemRepo) FindByID(ctx context.Context, id int64) (*catalog.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &item, nil
}

func (r *fakeItemRepo) FindByIDs(ctx context.Context, ids []int64) ([]catalog.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]catalog.Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := r.items[id]; ok {
			result = append(result, item)
		}
	}
	return result, nil
}

func (r *fakeItemRepo) Upsert(ctx context.Context, item *catalog.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = *item
	return nil
}

func (r *fakeItemRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// matching applies only the status predicate; the fakes do not model
// taxonomy or price filters.
func (r *fakeItemRepo) matching(filter catalog.ListFilter) []catalog.ListEdge {
	edges := make([]catalog.ListEdge, 0, len(r.items))
	for _, item := range r.items {
		if item.Status != filter.EffectiveStatus() {
			continue
		}
		edges = append(edges, catalog.ListEdge{ID: item.ID, CreatedAt: item.CreatedAt})
	}
	sort.Slice(edges, func(i, j int) bool {
		if !edges[i].CreatedAt.Equal(edges[j].CreatedAt) {
			return edges[i].CreatedAt.After(edges[j].CreatedAt)
		}
		return edges[i].ID > edges[j].ID
	})
	return edges
}

func (r *fakeItemRepo) Count(ctx context.Context, filter catalog.ListFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.matching(filter))), nil
}

func (r *fakeItemRepo) ListIDs(ctx context.Context, filter catalog.ListFilter, limit, offset int) ([]catalog.ListEdge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	edges := r.matching(filter)
	if offset >= len(edges) {
		return nil, nil
	}
	edges = edges[offset:]
	if len(edges) > limit {
		edges = edges[:limit]
	}
	return edges, nil
}

func (r *fakeItemRepo) ListIDsAfter(ctx context.Context, filter catalog.ListFilter, cursor catalog.Cursor, limit int) ([]catalog.ListEdge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	var result []catalog.ListEdge
	for _, edge := range r.matching(filter) {
		before := edge.CreatedAt.Before(cursor.CreatedAt) ||
			(edge.CreatedAt.Equal(cursor.CreatedAt) && edge.ID < cursor.ID)
		if !before {
			continue
		}
		result = append(result, edge)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

type fakeMetaRepo struct {
	mu   sync.Mutex
	bags map[int64]map[string]string
}

func newFakeMetaRepo() *fakeMetaRepo {
	return &fakeMetaRepo{bags: map[int64]map[string]string{}}
}

func (r *fakeMetaRepo) Replace(ctx context.Context, itemID int64, meta map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bag := make(map[string]string, len(meta))
	for k, v := range meta {
		bag[k] = v
	}
	r.bags[itemID] = bag
	return nil
}

func (r *fakeMetaRepo) DeleteByItemID(ctx context.Context, itemID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bags, itemID)
	return nil
}

func (r *fakeMetaRepo) FindByItemIDs(ctx context.Context, itemIDs []int64) (map[int64]map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make(map[int64]map[string]string)
	for _, id := range itemIDs {
		if bag, ok := r.bags[id]; ok {
			result[id] = bag
		}
	}
	return result, nil
}

func (r *fakeMetaRepo) ValuesByItemIDs(ctx context.Context, key string, itemIDs []int64) (map[int64]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make(map[int64]string)
	for _, id := range itemIDs {
		if bag, ok := r.bags[id]; ok {
			if value, ok := bag[key]; ok {
				result[id] = value
			}
		}
	}
	return result, nil
}

type termKey struct {
	termID   int64
	taxonomy string
}

type fakeTaxonomyRepo struct {
	mu       sync.Mutex
	nextTTID int64
	terms    map[int64]catalog.TermRef
	ttIDs    map[termKey]int64
	ttMeta   map[int64]termKey
	rels     map[int64]map[int64]struct{}
}

func newFakeTaxonomyRepo() *fakeTaxonomyRepo {
	return &fakeTaxonomyRepo{
		terms:  map[int64]catalog.TermRef{},
		ttIDs:  map[termKey]int64{},
		ttMeta: map[int64]termKey{},
		rels:   map[int64]map[int64]struct{}{},
	}
}

func (r *fakeTaxonomyRepo) EnsureTerm(ctx context.Context, taxonomy string, ref catalog.TermRef) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terms[ref.ID] = ref
	key := termKey{termID: ref.ID, taxonomy: taxonomy}
	if id, ok := r.ttIDs[key]; ok {
		return id, nil
	}
	r.nextTTID++
	r.ttIDs[key] = r.nextTTID
	r.ttMeta[r.nextTTID] = key
	return r.nextTTID, nil
}

func (r *fakeTaxonomyRepo) RelatedTermTaxonomyIDs(ctx context.Context, itemID int64, taxonomy string) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for ttID := range r.rels[itemID] {
		if r.ttMeta[ttID].taxonomy == taxonomy {
			ids = append(ids, ttID)
		}
	}
	return ids, nil
}

func (r *fakeTaxonomyRepo) RelatedTaxonomies(ctx context.Context, itemID int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]struct{}{}
	var taxonomies []string
	for ttID := range r.rels[itemID] {
		taxonomy := r.ttMeta[ttID].taxonomy
		if _, ok := seen[taxonomy]; ok {
			continue
		}
		seen[taxonomy] = struct{}{}
		taxonomies = append(taxonomies, taxonomy)
	}
	return taxonomies, nil
}

func (r *fakeTaxonomyRepo) AddRelationships(ctx context.Context, itemID int64, termTaxonomyIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rels[itemID] == nil {
		r.rels[itemID] = map[int64]struct{}{}
	}
	for _, id := range termTaxonomyIDs {
		r.rels[itemID][id] = struct{}{}
	}
	return nil
}

func (r *fakeTaxonomyRepo) RemoveRelationships(ctx context.Context, itemID int64, termTaxonomyIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range termTaxonomyIDs {
		delete(r.rels[itemID], id)
	}
	return nil
}

func (r *fakeTaxonomyRepo) DeleteByItemID(ctx context.Context, itemID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rels, itemID)
	return nil
}

func (r *fakeTaxonomyRepo) RefreshCounts(ctx context.Context, termTaxonomyIDs []int64) error {
	return nil
}

func (r *fakeTaxonomyRepo) TermsByItemIDs(ctx context.Context, itemIDs []int64) (map[int64]map[string][]catalog.Term, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make(map[int64]map[string][]catalog.Term)
	for _, itemID := range itemIDs {
		for ttID := range r.rels[itemID] {
			key := r.ttMeta[ttID]
			ref := r.terms[key.termID]
			if result[itemID] == nil {
				result[itemID] = map[string][]catalog.Term{}
			}
			result[itemID][key.taxonomy] = append(result[itemID][key.taxonomy],
				catalog.Term{ID: ref.ID, Name: ref.Name, Slug: ref.Slug})
		}
	}
	return result, nil
}

// relationshipSet returns the item's term-taxonomy ids within one
// taxonomy, for converged-state assertions.
func (r *fakeTaxonomyRepo) relationshipSet(itemID int64, taxonomy string) map[int64]struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := map[int64]struct{}{}
	for ttID := range r.rels[itemID] {
		if r.ttMeta[ttID].taxonomy == taxonomy {
			set[ttID] = struct{}{}
		}
	}
	return set
}

type fakeAttachmentRepo struct {
	mu   sync.Mutex
	rows map[int64]catalog.Attachment
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{rows: map[int64]catalog.Attachment{}}
}

func (r *fakeAttachmentRepo) Upsert(ctx context.Context, attachment *catalog.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[attachment.ID] = *attachment
	return nil
}

func (r *fakeAttachmentRepo) FindByItemIDs(ctx context.Context, itemIDs []int64) (map[int64][]catalog.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make(map[int64][]catalog.Attachment)
	for _, id := range itemIDs {
		for _, row := range r.rows {
			if row.ItemID == id && row.URL != "" {
				result[id] = append(result[id], row)
			}
		}
		sort.Slice(result[id], func(i, j int) bool {
			if result[id][i].Position != result[id][j].Position {
				return result[id][i].Position < result[id][j].Position
			}
			return result[id][i].ID < result[id][j].ID
		})
	}
	return result, nil
}

type fakeLookupRepo struct {
	mu   sync.Mutex
	rows map[int64]catalog.ProductLookup
}

func newFakeLookupRepo() *fakeLookupRepo {
	return &fakeLookupRepo{rows: map[int64]catalog.ProductLookup{}}
}

func (r *fakeLookupRepo) Upsert(ctx context.Context, lookup *catalog.ProductLookup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[lookup.ItemID] = *lookup
	return nil
}

func (r *fakeLookupRepo) DeleteByItemID(ctx context.Context, itemID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, itemID)
	return nil
}

func (r *fakeLookupRepo) FindByItemIDs(ctx context.Context, itemIDs []int64) (map[int64]catalog.ProductLookup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make(map[int64]catalog.ProductLookup)
	for _, id := range itemIDs {
		if row, ok := r.rows[id]; ok {
			result[id] = row
		}
	}
	return result, nil
}

// recordingInvalidator counts cache invalidations.
type recordingInvalidator struct {
	mu    sync.Mutex
	items []int64
	lists int
}

func (c *recordingInvalidator) InvalidateItem(ctx context.Context, itemID int64) {
	c.mu.Lock()
	c.items = append(c.items, itemID)
	c.mu.Unlock()
}

func (c *recordingInvalidator) InvalidateLists(ctx context.Context) {
	c.mu.Lock()
	c.lists++
	c.mu.Unlock()
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	eventType string
	itemID    int64
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType string, itemID int64) error {
	p.mu.Lock()
	p.events = append(p.events, publishedEvent{eventType: eventType, itemID: itemID})
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

var (
	_ catalog.ItemRepository       = (*fakeItemRepo)(nil)
	_ catalog.MetaRepository       = (*fakeMetaRepo)(nil)
	_ catalog.TaxonomyRepository   = (*fakeTaxonomyRepo)(nil)
	_ catalog.AttachmentRepository = (*fakeAttachmentRepo)(nil)
	_ catalog.LookupRepository     = (*fakeLookupRepo)(nil)
)
