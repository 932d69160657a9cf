package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/event"
)

type replicatorFixture struct {
	items       *fakeItemRepo
	meta        *fakeMetaRepo
	taxonomies  *fakeTaxonomyRepo
	attachments *fakeAttachmentRepo
	lookups     *fakeLookupRepo
	cache       *recordingInvalidator
	events      *recordingPublisher
	replicator  *Replicator
}

func newReplicatorFixture() *replicatorFixture {
	f := &replicatorFixture{
		items:       newFakeItemRepo(),
		meta:        newFakeMetaRepo(),
		taxonomies:  newFakeTaxonomyRepo(),
		attachments: newFakeAttachmentRepo(),
		lookups:     newFakeLookupRepo(),
		cache:       &recordingInvalidator{},
		events:      &recordingPublisher{},
	}
	f.replicator = NewReplicator(
		f.items, f.meta, f.taxonomies, f.attachments, f.lookups,
		f.cache, f.events, nil)
	return f
}

func snapshotFixture(id int64) *catalog.ItemSnapshot {
	return &catalog.ItemSnapshot{
		ID:           id,
		Name:         "Wireless Headphones",
		Slug:         "wireless-headphones",
		Status:       "publish",
		DateCreated:  catalog.UpstreamTime{Time: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		DateModified: catalog.UpstreamTime{Time: time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)},
		SKU:          "WH-100",
		Price:        "79.99",
		RegularPrice: "99.99",
		SalePrice:    "79.99",
		StockStatus:  catalog.StockStatusInStock,
		Categories: []catalog.TermRef{
			{ID: 10, Name: "Audio", Slug: "audio"},
		},
		Brands: []catalog.TermRef{
			{ID: 20, Name: "Acme", Slug: "acme"},
		},
		Images: []catalog.SnapshotImage{
			{ID: 900, Src: "https://cdn.example.com/wh100.jpg", Alt: "front", Position: 0},
		},
	}
}

func TestReplicator_Sync(t *testing.T) {
	ctx := context.Background()

	t.Run("replicates every table the item touches", func(t *testing.T) {
		f := newReplicatorFixture()
		require.NoError(t, f.replicator.Sync(ctx, snapshotFixture(500)))

		item, err := f.items.FindByID(ctx, 500)
		require.NoError(t, err)
		assert.Equal(t, "Wireless Headphones", item.Title)
		assert.Equal(t, catalog.ItemStatusPublish, item.Status)

		bags, err := f.meta.FindByItemIDs(ctx, []int64{500})
		require.NoError(t, err)
		assert.Equal(t, "WH-100", bags[500][catalog.MetaKeySKU])
		assert.Equal(t, "79.99", bags[500][catalog.MetaKeyPrice])

		terms, err := f.taxonomies.TermsByItemIDs(ctx, []int64{500})
		require.NoError(t, err)
		assert.Len(t, terms[500][catalog.TaxonomyCategory], 1)
		assert.Len(t, terms[500][catalog.TaxonomyBrand], 1)

		images, err := f.attachments.FindByItemIDs(ctx, []int64{500})
		require.NoError(t, err)
		require.Len(t, images[500], 1)
		assert.Equal(t, "https://cdn.example.com/wh100.jpg", images[500][0].URL)

		lookups, err := f.lookups.FindByItemIDs(ctx, []int64{500})
		require.NoError(t, err)
		assert.Equal(t, "WH-100", lookups[500].SKU)
		assert.True(t, lookups[500].OnSale)
	})

	t.Run("replaying the same snapshot is a no-op", func(t *testing.T) {
		f := newReplicatorFixture()
		snap := snapshotFixture(500)

		require.NoError(t, f.replicator.Sync(ctx, snap))
		before := f.taxonomies.relationshipSet(500, catalog.TaxonomyCategory)

		require.NoError(t, f.replicator.Sync(ctx, snap))
		after := f.taxonomies.relationshipSet(500, catalog.TaxonomyCategory)

		assert.Equal(t, before, after)
		bags, err := f.meta.FindByItemIDs(ctx, []int64{500})
		require.NoError(t, err)
		assert.Equal(t, "WH-100", bags[500][catalog.MetaKeySKU])
	})

	t.Run("taxonomy links converge by set difference", func(t *testing.T) {
		f := newReplicatorFixture()
		snap := snapshotFixture(500)
		snap.Categories = []catalog.TermRef{
			{ID: 10, Name: "Audio", Slug: "audio"},
			{ID: 11, Name: "Video", Slug: "video"},
		}
		require.NoError(t, f.replicator.Sync(ctx, snap))

		next := snapshotFixture(500)
		next.DateModified = catalog.UpstreamTime{Time: snap.DateModified.Add(time.Hour)}
		next.Categories = []catalog.TermRef{
			{ID: 11, Name: "Video", Slug: "video"},
			{ID: 12, Name: "Accessories", Slug: "accessories"},
		}
		require.NoError(t, f.replicator.Sync(ctx, next))

		tt11, err := f.taxonomies.EnsureTerm(ctx, catalog.TaxonomyCategory, catalog.TermRef{ID: 11})
		require.NoError(t, err)
		tt12, err := f.taxonomies.EnsureTerm(ctx, catalog.TaxonomyCategory, catalog.TermRef{ID: 12})
		require.NoError(t, err)

		assert.Equal(t, map[int64]struct{}{tt11: {}, tt12: {}},
			f.taxonomies.relationshipSet(500, catalog.TaxonomyCategory))
	})

	t.Run("a snapshot without terms removes existing links", func(t *testing.T) {
		f := newReplicatorFixture()
		require.NoError(t, f.replicator.Sync(ctx, snapshotFixture(500)))

		next := snapshotFixture(500)
		next.DateModified = catalog.UpstreamTime{Time: next.DateModified.Add(time.Hour)}
		next.Categories = nil
		next.Brands = nil
		require.NoError(t, f.replicator.Sync(ctx, next))

		assert.Empty(t, f.taxonomies.relationshipSet(500, catalog.TaxonomyCategory))
		assert.Empty(t, f.taxonomies.relationshipSet(500, catalog.TaxonomyBrand))
	})

	t.Run("a dropped attribute facet removes its taxonomy links", func(t *testing.T) {
		f := newReplicatorFixture()
		snap := snapshotFixture(500)
		snap.Attributes = []catalog.SnapshotAttribute{
			{Slug: "color", Name: "Color", Options: []catalog.TermRef{
				{ID: 30, Name: "Red", Slug: "red"},
			}},
		}
		require.NoError(t, f.replicator.Sync(ctx, snap))

		colorTaxonomy := catalog.AttributeTaxonomy("color")
		require.NotEmpty(t, f.taxonomies.relationshipSet(500, colorTaxonomy))

		next := snapshotFixture(500)
		next.DateModified = catalog.UpstreamTime{Time: snap.DateModified.Add(time.Hour)}
		next.Attributes = nil
		require.NoError(t, f.replicator.Sync(ctx, next))

		assert.Empty(t, f.taxonomies.relationshipSet(500, colorTaxonomy))
		// The fixed taxonomies the snapshot still carries are untouched.
		assert.NotEmpty(t, f.taxonomies.relationshipSet(500, catalog.TaxonomyCategory))
	})

	t.Run("a replaced attribute facet converges to the new terms", func(t *testing.T) {
		f := newReplicatorFixture()
		snap := snapshotFixture(500)
		snap.Attributes = []catalog.SnapshotAttribute{
			{Slug: "color", Name: "Color", Options: []catalog.TermRef{
				{ID: 30, Name: "Red", Slug: "red"},
			}},
		}
		require.NoError(t, f.replicator.Sync(ctx, snap))

		next := snapshotFixture(500)
		next.DateModified = catalog.UpstreamTime{Time: snap.DateModified.Add(time.Hour)}
		next.Attributes = []catalog.SnapshotAttribute{
			{Slug: "size", Name: "Size", Options: []catalog.TermRef{
				{ID: 40, Name: "Large", Slug: "large"},
			}},
		}
		require.NoError(t, f.replicator.Sync(ctx, next))

		assert.Empty(t, f.taxonomies.relationshipSet(500, catalog.AttributeTaxonomy("color")))

		ttSize, err := f.taxonomies.EnsureTerm(ctx, catalog.AttributeTaxonomy("size"), catalog.TermRef{ID: 40})
		require.NoError(t, err)
		assert.Equal(t, map[int64]struct{}{ttSize: {}},
			f.taxonomies.relationshipSet(500, catalog.AttributeTaxonomy("size")))
	})

	t.Run("lookup row always matches the meta written in the same call", func(t *testing.T) {
		f := newReplicatorFixture()
		snap := snapshotFixture(500)
		require.NoError(t, f.replicator.Sync(ctx, snap))

		bags, err := f.meta.FindByItemIDs(ctx, []int64{500})
		require.NoError(t, err)
		lookups, err := f.lookups.FindByItemIDs(ctx, []int64{500})
		require.NoError(t, err)

		expected := catalog.BuildLookup(500, bags[500])
		assert.Equal(t, *expected, lookups[500])
	})

	t.Run("images without a source URL are skipped", func(t *testing.T) {
		f := newReplicatorFixture()
		snap := snapshotFixture(500)
		snap.Images = append(snap.Images, catalog.SnapshotImage{ID: 901, Src: "", Position: 1})

		require.NoError(t, f.replicator.Sync(ctx, snap))

		images, err := f.attachments.FindByItemIDs(ctx, []int64{500})
		require.NoError(t, err)
		require.Len(t, images[500], 1)
		assert.Equal(t, int64(900), images[500][0].ID)
	})

	t.Run("older snapshots are skipped", func(t *testing.T) {
		f := newReplicatorFixture()
		require.NoError(t, f.replicator.Sync(ctx, snapshotFixture(500)))

		stale := snapshotFixture(500)
		stale.Name = "Old Name"
		stale.DateModified = catalog.UpstreamTime{Time: stale.DateModified.Add(-time.Hour)}
		require.NoError(t, f.replicator.Sync(ctx, stale))

		item, err := f.items.FindByID(ctx, 500)
		require.NoError(t, err)
		assert.Equal(t, "Wireless Headphones", item.Title)
	})

	t.Run("snapshots without a modification timestamp always apply", func(t *testing.T) {
		f := newReplicatorFixture()
		require.NoError(t, f.replicator.Sync(ctx, snapshotFixture(500)))

		update := snapshotFixture(500)
		update.Name = "Renamed"
		update.DateModified = catalog.UpstreamTime{}
		require.NoError(t, f.replicator.Sync(ctx, update))

		item, err := f.items.FindByID(ctx, 500)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", item.Title)
	})

	t.Run("invalidates caches and publishes an event", func(t *testing.T) {
		f := newReplicatorFixture()
		require.NoError(t, f.replicator.Sync(ctx, snapshotFixture(500)))

		assert.Equal(t, []int64{500}, f.cache.items)
		assert.Equal(t, 1, f.cache.lists)
		require.Len(t, f.events.events, 1)
		assert.Equal(t, event.TypeItemSynced, f.events.events[0].eventType)
	})

	t.Run("rejects snapshots without an id", func(t *testing.T) {
		f := newReplicatorFixture()
		assert.Error(t, f.replicator.Sync(ctx, &catalog.ItemSnapshot{}))
		assert.Error(t, f.replicator.Sync(ctx, nil))
	})
}

func TestReplicator_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes item, meta, links and lookup but keeps attachments", func(t *testing.T) {
		f := newReplicatorFixture()
		require.NoError(t, f.replicator.Sync(ctx, snapshotFixture(500)))
		require.NoError(t, f.replicator.Delete(ctx, 500))

		_, err := f.items.FindByID(ctx, 500)
		assert.Error(t, err)

		bags, err := f.meta.FindByItemIDs(ctx, []int64{500})
		require.NoError(t, err)
		assert.Empty(t, bags)

		assert.Empty(t, f.taxonomies.relationshipSet(500, catalog.TaxonomyCategory))

		lookups, err := f.lookups.FindByItemIDs(ctx, []int64{500})
		require.NoError(t, err)
		assert.Empty(t, lookups)

		images, err := f.attachments.FindByItemIDs(ctx, []int64{500})
		require.NoError(t, err)
		assert.NotEmpty(t, images[500])
	})

	t.Run("publishes a delete event and invalidates caches", func(t *testing.T) {
		f := newReplicatorFixture()
		require.NoError(t, f.replicator.Sync(ctx, snapshotFixture(500)))
		require.NoError(t, f.replicator.Delete(ctx, 500))

		require.Len(t, f.events.events, 2)
		assert.Equal(t, event.TypeItemDeleted, f.events.events[1].eventType)
		assert.Equal(t, 2, f.cache.lists)
	})
}
