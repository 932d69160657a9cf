package catalog

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
)

// ReadService serves single products and batches of products from the
// replica. Single products are cached under their item key; the
// replicator drops that entry on every sync.
type ReadService struct {
	items       catalog.ItemRepository
	meta        catalog.MetaRepository
	taxonomies  catalog.TaxonomyRepository
	attachments catalog.AttachmentRepository
	lookups     catalog.LookupRepository
	cache       *cache.Coordinator
	logger      *zap.Logger
}

// NewReadService creates a ReadService.
func NewReadService(
	items catalog.ItemRepository,
	meta catalog.MetaRepository,
	taxonomies catalog.TaxonomyRepository,
	attachments catalog.AttachmentRepository,
	lookups catalog.LookupRepository,
	cacheCoordinator *cache.Coordinator,
	logger *zap.Logger,
) *ReadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadService{
		items:       items,
		meta:        meta,
		taxonomies:  taxonomies,
		attachments: attachments,
		lookups:     lookups,
		cache:       cacheCoordinator,
		logger:      logger,
	}
}

// NewLoaders creates a request-scoped loader bundle over the service's
// repositories.
func (s *ReadService) NewLoaders() *Loaders {
	return NewLoaders(s.items, s.meta, s.taxonomies, s.attachments, s.lookups)
}

// GetProduct returns one assembled product.
func (s *ReadService) GetProduct(ctx context.Context, id int64) (*ProductResponse, error) {
	resp, err := cache.GetOrCompute(ctx, s.cache, s.cache.ItemKey(id), s.cache.ItemTTL(),
		func(ctx context.Context) (ProductResponse, error) {
			products, err := s.assemble(ctx, s.NewLoaders(), []int64{id})
			if err != nil {
				return ProductResponse{}, err
			}
			if len(products) == 0 {
				return ProductResponse{}, shared.ErrNotFound
			}
			return products[0], nil
		})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetProducts returns the assembled products for the given ids, in id
// order, silently skipping ids the replica does not hold.
func (s *ReadService) GetProducts(ctx context.Context, ids []int64) ([]ProductResponse, error) {
	return s.assemble(ctx, s.NewLoaders(), ids)
}

// assemble resolves every read dimension through the loader bundle and
// builds the response models. One backend query per dimension.
func (s *ReadService) assemble(ctx context.Context, loaders *Loaders, ids []int64) ([]ProductResponse, error) {
	items, err := loaders.Items.LoadMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	present := make([]int64, 0, len(ids))
	for i, item := range items {
		if item != nil {
			present = append(present, ids[i])
		}
	}
	if len(present) == 0 {
		return []ProductResponse{}, nil
	}

	metaBags, err := loaders.Meta.LoadMany(ctx, present)
	if err != nil {
		return nil, err
	}
	termSets, err := loaders.Terms.LoadMany(ctx, present)
	if err != nil {
		return nil, err
	}
	attachmentSets, err := loaders.Attachments.LoadMany(ctx, present)
	if err != nil {
		return nil, err
	}
	lookupRows, err := loaders.Lookups.LoadMany(ctx, present)
	if err != nil {
		return nil, err
	}

	responses := make([]ProductResponse, 0, len(present))
	for i, id := range present {
		item, err := loaders.Items.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		responses = append(responses, buildProductResponse(
			item, metaBags[i], termSets[i], attachmentSets[i], lookupRows[i]))
	}
	return responses, nil
}

// IsNotFound reports whether an error is the not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
