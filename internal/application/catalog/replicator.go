package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/event"
)

// CacheInvalidator is the slice of the cache coordinator the replicator
// needs: dropping one item entry and detaching cached list pages.
type CacheInvalidator interface {
	InvalidateItem(ctx context.Context, itemID int64)
	InvalidateLists(ctx context.Context)
}

// Replicator applies upstream item snapshots to the relational replica.
// One Sync call brings every table the item touches up to date: the
// item row, its scalar meta, taxonomy links, attachments and the
// pre-aggregated lookup row.
type Replicator struct {
	items       catalog.ItemRepository
	meta        catalog.MetaRepository
	taxonomies  catalog.TaxonomyRepository
	attachments catalog.AttachmentRepository
	lookups     catalog.LookupRepository
	cache       CacheInvalidator
	events      event.Publisher
	logger      *zap.Logger
}

// NewReplicator creates a Replicator over the replica repositories.
func NewReplicator(
	items catalog.ItemRepository,
	meta catalog.MetaRepository,
	taxonomies catalog.TaxonomyRepository,
	attachments catalog.AttachmentRepository,
	lookups catalog.LookupRepository,
	cache CacheInvalidator,
	events event.Publisher,
	logger *zap.Logger,
) *Replicator {
	if events == nil {
		events = event.NoopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Replicator{
		items:       items,
		meta:        meta,
		taxonomies:  taxonomies,
		attachments: attachments,
		lookups:     lookups,
		cache:       cache,
		events:      events,
		logger:      logger,
	}
}

// Sync replicates one item snapshot. The call is idempotent: replaying
// the same snapshot leaves the replica unchanged, and syncing a newer
// snapshot converges every table to it.
//
// A snapshot older than the replicated state is skipped, so out-of-order
// webhook deliveries cannot roll the replica back. Snapshots without a
// modification timestamp always apply.
func (r *Replicator) Sync(ctx context.Context, snapshot *catalog.ItemSnapshot) error {
	if snapshot == nil || snapshot.ID == 0 {
		return fmt.Errorf("sync: snapshot has no id")
	}

	stale, err := r.isStale(ctx, snapshot)
	if err != nil {
		return err
	}
	if stale {
		r.logger.Info("skipping stale snapshot",
			zap.Int64("item_id", snapshot.ID),
			zap.Time("snapshot_modified", snapshot.DateModified.Time))
		return nil
	}

	if err := r.items.Upsert(ctx, snapshot.Item()); err != nil {
		return fmt.Errorf("sync item %d: %w", snapshot.ID, err)
	}

	meta := snapshot.MetaMap()
	if err := r.meta.Replace(ctx, snapshot.ID, meta); err != nil {
		return fmt.Errorf("sync item %d meta: %w", snapshot.ID, err)
	}

	if err := r.reconcileTerms(ctx, snapshot); err != nil {
		return fmt.Errorf("sync item %d terms: %w", snapshot.ID, err)
	}

	if err := r.syncAttachments(ctx, snapshot); err != nil {
		return fmt.Errorf("sync item %d attachments: %w", snapshot.ID, err)
	}

	if err := r.lookups.Upsert(ctx, catalog.BuildLookup(snapshot.ID, meta)); err != nil {
		return fmt.Errorf("sync item %d lookup: %w", snapshot.ID, err)
	}

	r.cache.InvalidateItem(ctx, snapshot.ID)
	r.cache.InvalidateLists(ctx)

	if err := r.events.Publish(ctx, event.TypeItemSynced, snapshot.ID); err != nil {
		r.logger.Warn("failed to publish sync event",
			zap.Int64("item_id", snapshot.ID),
			zap.Error(err))
	}

	r.logger.Info("item synced",
		zap.Int64("item_id", snapshot.ID),
		zap.String("status", snapshot.Status))
	return nil
}

// Delete removes an item from the replica: the item row, its meta,
// taxonomy links and lookup row. Attachments stay; other items may
// reference the same upstream media and the rows are harmless orphans.
func (r *Replicator) Delete(ctx context.Context, itemID int64) error {
	if err := r.taxonomies.DeleteByItemID(ctx, itemID); err != nil {
		return fmt.Errorf("delete item %d terms: %w", itemID, err)
	}
	if err := r.meta.DeleteByItemID(ctx, itemID); err != nil {
		return fmt.Errorf("delete item %d meta: %w", itemID, err)
	}
	if err := r.lookups.DeleteByItemID(ctx, itemID); err != nil {
		return fmt.Errorf("delete item %d lookup: %w", itemID, err)
	}
	if err := r.items.Delete(ctx, itemID); err != nil {
		return fmt.Errorf("delete item %d: %w", itemID, err)
	}

	r.cache.InvalidateItem(ctx, itemID)
	r.cache.InvalidateLists(ctx)

	if err := r.events.Publish(ctx, event.TypeItemDeleted, itemID); err != nil {
		r.logger.Warn("failed to publish delete event",
			zap.Int64("item_id", itemID),
			zap.Error(err))
	}

	r.logger.Info("item deleted", zap.Int64("item_id", itemID))
	return nil
}

// isStale reports whether the replica already holds a newer state of
// the item than the snapshot describes.
func (r *Replicator) isStale(ctx context.Context, snapshot *catalog.ItemSnapshot) (bool, error) {
	if snapshot.DateModified.IsZero() {
		return false, nil
	}
	existing, err := r.items.FindByID(ctx, snapshot.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return existing.ModifiedAt.After(snapshot.DateModified.Time), nil
}

// reconcileTerms converges the item's taxonomy links to the snapshot by
// set difference: links missing from the replica are added, links no
// longer present in the snapshot are removed. Every managed taxonomy is
// reconciled, including ones the snapshot carries no terms for.
func (r *Replicator) reconcileTerms(ctx context.Context, snapshot *catalog.ItemSnapshot) error {
	byTaxonomy := snapshot.TermsByTaxonomy()

	// A dynamic attribute taxonomy the snapshot dropped entirely does not
	// appear in byTaxonomy; reconcile it against an empty desired set so
	// its stale links are removed.
	existing, err := r.taxonomies.RelatedTaxonomies(ctx, snapshot.ID)
	if err != nil {
		return err
	}
	for _, taxonomy := range existing {
		if _, ok := byTaxonomy[taxonomy]; !ok {
			byTaxonomy[taxonomy] = nil
		}
	}

	taxonomies := make([]string, 0, len(byTaxonomy))
	for taxonomy := range byTaxonomy {
		taxonomies = append(taxonomies, taxonomy)
	}
	sort.Strings(taxonomies)

	touched := make([]int64, 0)
	for _, taxonomy := range taxonomies {
		desired := make(map[int64]struct{}, len(byTaxonomy[taxonomy]))
		for _, ref := range byTaxonomy[taxonomy] {
			ttID, err := r.taxonomies.EnsureTerm(ctx, taxonomy, ref)
			if err != nil {
				return fmt.Errorf("ensure term %q/%q: %w", taxonomy, ref.Slug, err)
			}
			desired[ttID] = struct{}{}
		}

		current, err := r.taxonomies.RelatedTermTaxonomyIDs(ctx, snapshot.ID, taxonomy)
		if err != nil {
			return err
		}

		var toAdd, toRemove []int64
		currentSet := make(map[int64]struct{}, len(current))
		for _, id := range current {
			currentSet[id] = struct{}{}
			if _, ok := desired[id]; !ok {
				toRemove = append(toRemove, id)
			}
		}
		for id := range desired {
			if _, ok := currentSet[id]; !ok {
				toAdd = append(toAdd, id)
			}
		}

		if len(toAdd) > 0 {
			if err := r.taxonomies.AddRelationships(ctx, snapshot.ID, toAdd); err != nil {
				return err
			}
		}
		if len(toRemove) > 0 {
			if err := r.taxonomies.RemoveRelationships(ctx, snapshot.ID, toRemove); err != nil {
				return err
			}
		}
		touched = append(touched, toAdd...)
		touched = append(touched, toRemove...)
	}

	if len(touched) > 0 {
		if err := r.taxonomies.RefreshCounts(ctx, touched); err != nil {
			return err
		}
	}
	return nil
}

// syncAttachments upserts the snapshot's images. Entries without a
// source URL are skipped; a broken upstream media row must not shadow a
// previously replicated good one.
func (r *Replicator) syncAttachments(ctx context.Context, snapshot *catalog.ItemSnapshot) error {
	for _, img := range snapshot.Images {
		if img.Src == "" {
			r.logger.Warn("skipping image without source URL",
				zap.Int64("item_id", snapshot.ID),
				zap.Int64("image_id", img.ID))
			continue
		}
		err := r.attachments.Upsert(ctx, &catalog.Attachment{
			ID:       img.ID,
			ItemID:   snapshot.ID,
			URL:      img.Src,
			Alt:      img.Alt,
			Position: img.Position,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
