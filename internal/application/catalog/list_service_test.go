package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
)

type listFixture struct {
	*replicatorFixture
	coordinator *cache.Coordinator
	reads       *ReadService
	lists       *ListService
}

func newListFixture(t *testing.T) *listFixture {
	t.Helper()
	f := newReplicatorFixture()
	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	coordinator := cache.NewCoordinator(store, 5*time.Minute, time.Minute, nil)

	// Wire the replicator to the same coordinator the list service reads
	// through, so syncs invalidate what these tests cache.
	f.replicator = NewReplicator(
		f.items, f.meta, f.taxonomies, f.attachments, f.lookups,
		coordinator, f.events, nil)

	reads := NewReadService(f.items, f.meta, f.taxonomies, f.attachments, f.lookups, coordinator, nil)
	return &listFixture{
		replicatorFixture: f,
		coordinator:       coordinator,
		reads:             reads,
		lists:             NewListService(reads, f.items, coordinator, nil),
	}
}

// seedPublished syncs n published items with ascending creation times,
// ids 101..100+n.
func (f *listFixture) seedPublished(t *testing.T, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		snap := snapshotFixture(int64(100 + i))
		snap.DateCreated = catalog.UpstreamTime{Time: snap.DateCreated.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, f.replicator.Sync(context.Background(), snap))
	}
}

func TestListService_OffsetPagination(t *testing.T) {
	ctx := context.Background()

	t.Run("first page of five items at two per page", func(t *testing.T) {
		f := newListFixture(t)
		f.seedPublished(t, 5)

		resp, err := f.lists.ListProducts(ctx, catalog.ListFilter{}, catalog.PageRequest{Page: 1, PerPage: 2})
		require.NoError(t, err)

		require.Len(t, resp.Products, 2)
		assert.Equal(t, int64(105), resp.Products[0].ID)
		assert.Equal(t, int64(104), resp.Products[1].ID)
		assert.Equal(t, int64(5), resp.TotalCount)
		assert.True(t, resp.HasNextPage)
		assert.False(t, resp.HasPreviousPage)
	})

	t.Run("last page is short and has no next", func(t *testing.T) {
		f := newListFixture(t)
		f.seedPublished(t, 5)

		resp, err := f.lists.ListProducts(ctx, catalog.ListFilter{}, catalog.PageRequest{Page: 3, PerPage: 2})
		require.NoError(t, err)

		require.Len(t, resp.Products, 1)
		assert.Equal(t, int64(101), resp.Products[0].ID)
		assert.False(t, resp.HasNextPage)
		assert.True(t, resp.HasPreviousPage)
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		f := newListFixture(t)
		f.seedPublished(t, 2)

		resp, err := f.lists.ListProducts(ctx, catalog.ListFilter{}, catalog.PageRequest{Page: 5, PerPage: 2})
		require.NoError(t, err)

		assert.Empty(t, resp.Products)
		assert.Equal(t, int64(2), resp.TotalCount)
		assert.False(t, resp.HasNextPage)
	})

	t.Run("products carry assembled read data", func(t *testing.T) {
		f := newListFixture(t)
		f.seedPublished(t, 1)

		resp, err := f.lists.ListProducts(ctx, catalog.ListFilter{}, catalog.PageRequest{})
		require.NoError(t, err)

		require.Len(t, resp.Products, 1)
		p := resp.Products[0]
		assert.Equal(t, "WH-100", p.SKU)
		assert.True(t, p.OnSale)
		assert.Len(t, p.Categories, 1)
		assert.Len(t, p.Images, 1)
	})
}

func TestListService_KeysetPagination(t *testing.T) {
	ctx := context.Background()

	t.Run("cursor walks the full result set without gaps", func(t *testing.T) {
		f := newListFixture(t)
		f.seedPublished(t, 5)

		first, err := f.lists.ListProducts(ctx, catalog.ListFilter{}, catalog.PageRequest{PerPage: 2})
		require.NoError(t, err)
		require.Len(t, first.Products, 2)
		require.NotEmpty(t, first.EndCursor)

		second, err := f.lists.ListProducts(ctx, catalog.ListFilter{}, catalog.PageRequest{PerPage: 2, After: first.EndCursor})
		require.NoError(t, err)
		require.Len(t, second.Products, 2)
		assert.Equal(t, int64(103), second.Products[0].ID)
		assert.Equal(t, int64(102), second.Products[1].ID)
		assert.True(t, second.HasNextPage)
		assert.True(t, second.HasPreviousPage)

		third, err := f.lists.ListProducts(ctx, catalog.ListFilter{}, catalog.PageRequest{PerPage: 2, After: second.EndCursor})
		require.NoError(t, err)
		require.Len(t, third.Products, 1)
		assert.Equal(t, int64(101), third.Products[0].ID)
		assert.False(t, third.HasNextPage)
	})

	t.Run("malformed cursors are rejected", func(t *testing.T) {
		f := newListFixture(t)
		f.seedPublished(t, 2)

		_, err := f.lists.ListProducts(ctx, catalog.ListFilter{}, catalog.PageRequest{After: "not-a-cursor"})
		assert.ErrorIs(t, err, shared.ErrInvalidCursor)
	})
}

func TestListService_Caching(t *testing.T) {
	ctx := context.Background()

	t.Run("identical requests hit the replica once", func(t *testing.T) {
		f := newListFixture(t)
		f.seedPublished(t, 3)
		queriesBefore := f.items.lists

		_, err := f.lists.ListProducts(ctx, catalog.ListFilter{}, catalog.PageRequest{PerPage: 2})
		require.NoError(t, err)
		_, err = f.lists.ListProducts(ctx, catalog.ListFilter{}, catalog.PageRequest{PerPage: 2})
		require.NoError(t, err)

		assert.Equal(t, queriesBefore+1, f.items.lists)
	})

	t.Run("a sync detaches cached pages", func(t *testing.T) {
		f := newListFixture(t)
		f.seedPublished(t, 2)

		before, err := f.lists.ListProducts(ctx, catalog.ListFilter{}, catalog.PageRequest{PerPage: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(2), before.TotalCount)

		// Replicate a third item; the coordinator version bump must make
		// the next list request recompute.
		f.seedPublished(t, 3)

		after, err := f.lists.ListProducts(ctx, catalog.ListFilter{}, catalog.PageRequest{PerPage: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(3), after.TotalCount)
	})

	t.Run("different filters never share cache entries", func(t *testing.T) {
		f := newListFixture(t)
		f.seedPublished(t, 2)

		published, err := f.lists.ListProducts(ctx, catalog.ListFilter{}, catalog.PageRequest{})
		require.NoError(t, err)
		drafts, err := f.lists.ListProducts(ctx, catalog.ListFilter{Status: catalog.ItemStatusDraft}, catalog.PageRequest{})
		require.NoError(t, err)

		assert.Equal(t, int64(2), published.TotalCount)
		assert.Equal(t, int64(0), drafts.TotalCount)
	})
}
