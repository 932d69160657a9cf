package catalog

import (
	"context"
	"sync"

	"github.com/storefront/backend/internal/domain/catalog"
)

// BatchFunc fetches values for a set of keys in one backend call. Keys
// with no value are simply absent from the result map.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

// Loader batches and deduplicates key lookups within one request. Each
// key hits the backend at most once per loader lifetime; repeated loads
// are served from the loader's memo. A key the backend knows nothing
// about resolves to the zero value and is memoized too, so retrying it
// does not re-query.
//
// Loaders are request-scoped. Safe for concurrent use.
type Loader[K comparable, V any] struct {
	fetch BatchFunc[K, V]

	mu   sync.Mutex
	memo map[K]V
}

// NewLoader creates a Loader over the given batch function.
func NewLoader[K comparable, V any](fetch BatchFunc[K, V]) *Loader[K, V] {
	return &Loader[K, V]{
		fetch: fetch,
		memo:  make(map[K]V),
	}
}

// Load resolves one key.
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, error) {
	values, err := l.LoadMany(ctx, []K{key})
	if err != nil {
		var zero V
		return zero, err
	}
	return values[0], nil
}

// LoadMany resolves keys positionally: the i-th result belongs to the
// i-th key. Unknown keys yield the zero value at their position.
func (l *Loader[K, V]) LoadMany(ctx context.Context, keys []K) ([]V, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var missing []K
	seen := make(map[K]struct{}, len(keys))
	for _, key := range keys {
		if _, ok := l.memo[key]; ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		missing = append(missing, key)
	}

	if len(missing) > 0 {
		fetched, err := l.fetch(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, key := range missing {
			// Memoize absent keys as zero values.
			l.memo[key] = fetched[key]
		}
	}

	values := make([]V, len(keys))
	for i, key := range keys {
		values[i] = l.memo[key]
	}
	return values, nil
}

// Prime seeds the memo with a known value, bypassing the backend.
func (l *Loader[K, V]) Prime(key K, value V) {
	l.mu.Lock()
	l.memo[key] = value
	l.mu.Unlock()
}

// Loaders bundles one batched loader per read dimension of an item.
// A fresh bundle is created per request; resolving a page of products
// then costs one backend query per dimension, not per item.
type Loaders struct {
	Items       *Loader[int64, *catalog.Item]
	Meta        *Loader[int64, map[string]string]
	SKUs        *Loader[int64, string]
	Terms       *Loader[int64, map[string][]catalog.Term]
	Attachments *Loader[int64, []catalog.Attachment]
	Lookups     *Loader[int64, catalog.ProductLookup]
}

// NewLoaders creates a request-scoped loader bundle over the replica
// repositories.
func NewLoaders(
	items catalog.ItemRepository,
	meta catalog.MetaRepository,
	taxonomies catalog.TaxonomyRepository,
	attachments catalog.AttachmentRepository,
	lookups catalog.LookupRepository,
) *Loaders {
	return &Loaders{
		Items: NewLoader(func(ctx context.Context, ids []int64) (map[int64]*catalog.Item, error) {
			rows, err := items.FindByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			result := make(map[int64]*catalog.Item, len(rows))
			for i := range rows {
				result[rows[i].ID] = &rows[i]
			}
			return result, nil
		}),
		Meta: NewLoader(func(ctx context.Context, ids []int64) (map[int64]map[string]string, error) {
			return meta.FindByItemIDs(ctx, ids)
		}),
		SKUs: NewLoader(func(ctx context.Context, ids []int64) (map[int64]string, error) {
			return meta.ValuesByItemIDs(ctx, catalog.MetaKeySKU, ids)
		}),
		Terms: NewLoader(func(ctx context.Context, ids []int64) (map[int64]map[string][]catalog.Term, error) {
			return taxonomies.TermsByItemIDs(ctx, ids)
		}),
		Attachments: NewLoader(func(ctx context.Context, ids []int64) (map[int64][]catalog.Attachment, error) {
			return attachments.FindByItemIDs(ctx, ids)
		}),
		Lookups: NewLoader(func(ctx context.Context, ids []int64) (map[int64]catalog.ProductLookup, error) {
			return lookups.FindByItemIDs(ctx, ids)
		}),
	}
}
