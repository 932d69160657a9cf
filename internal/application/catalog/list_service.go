package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/cache"
)

// ListService resolves filtered, paginated product lists against the
// replica. Page id sets are cached under a key derived from the filter
// and the coordinator's list version; the replicator bumps the version
// on every sync, so no stale page survives a catalog change.
type ListService struct {
	reads  *ReadService
	items  catalog.ItemRepository
	cache  *cache.Coordinator
	logger *zap.Logger
}

// NewListService creates a ListService.
func NewListService(reads *ReadService, items catalog.ItemRepository, cacheCoordinator *cache.Coordinator, logger *zap.Logger) *ListService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListService{
		reads:  reads,
		items:  items,
		cache:  cacheCoordinator,
		logger: logger,
	}
}

// cachedPage is the cacheable part of a list resolution: ids and
// pagination metadata, without the assembled product bodies.
type cachedPage struct {
	IDs             []int64 `json:"ids"`
	TotalCount      int64   `json:"total_count"`
	HasNextPage     bool    `json:"has_next_page"`
	HasPreviousPage bool    `json:"has_previous_page"`
	EndCursor       string  `json:"end_cursor,omitempty"`
}

// ListProducts resolves one page of products. PageRequest.After selects
// keyset pagination; otherwise Page/PerPage offset pagination is used.
func (s *ListService) ListProducts(ctx context.Context, filter catalog.ListFilter, page catalog.PageRequest) (*ProductListResponse, error) {
	page = page.Normalize()

	signature, err := listSignature(filter, page)
	if err != nil {
		return nil, err
	}

	resolved, err := cache.GetOrCompute(ctx, s.cache, s.cache.ListKey(ctx, signature), s.cache.ListTTL(),
		func(ctx context.Context) (cachedPage, error) {
			return s.resolvePage(ctx, filter, page)
		})
	if err != nil {
		return nil, err
	}

	products, err := s.reads.GetProducts(ctx, resolved.IDs)
	if err != nil {
		return nil, err
	}

	return &ProductListResponse{
		Products:        products,
		TotalCount:      resolved.TotalCount,
		HasNextPage:     resolved.HasNextPage,
		HasPreviousPage: resolved.HasPreviousPage,
		EndCursor:       resolved.EndCursor,
	}, nil
}

// resolvePage runs the list query in the requested pagination mode. One
// extra edge is fetched to decide HasNextPage without a second count.
func (s *ListService) resolvePage(ctx context.Context, filter catalog.ListFilter, page catalog.PageRequest) (cachedPage, error) {
	var edges []catalog.ListEdge

	if page.After != "" {
		cursor, err := catalog.DecodeCursor(page.After)
		if err != nil {
			return cachedPage{}, err
		}
		edges, err = s.items.ListIDsAfter(ctx, filter, cursor, page.PerPage+1)
		if err != nil {
			return cachedPage{}, err
		}
	} else {
		var err error
		edges, err = s.items.ListIDs(ctx, filter, page.PerPage+1, page.Offset())
		if err != nil {
			return cachedPage{}, err
		}
	}

	total, err := s.items.Count(ctx, filter)
	if err != nil {
		return cachedPage{}, err
	}

	hasNext := len(edges) > page.PerPage
	if hasNext {
		edges = edges[:page.PerPage]
	}

	result := cachedPage{
		IDs:             make([]int64, 0, len(edges)),
		TotalCount:      total,
		HasNextPage:     hasNext,
		HasPreviousPage: page.After != "" || page.Page > 1,
	}
	for _, edge := range edges {
		result.IDs = append(result.IDs, edge.ID)
	}
	if hasNext && len(edges) > 0 {
		last := edges[len(edges)-1]
		result.EndCursor = catalog.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
	}
	return result, nil
}

// listSignature derives a deterministic cache signature from the filter
// and page request. encoding/json sorts map keys, so equal filters
// always produce equal signatures.
func listSignature(filter catalog.ListFilter, page catalog.PageRequest) (string, error) {
	encoded, err := json.Marshal(struct {
		Filter catalog.ListFilter  `json:"filter"`
		Page   catalog.PageRequest `json:"page"`
	}{filter, page})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}
