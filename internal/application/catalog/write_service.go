package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/upstream"
)

// UpstreamCatalog is the slice of the upstream client the write path
// uses. The upstream stays the system of record: every mutation goes
// there first and the returned snapshot is what the replica syncs.
type UpstreamCatalog interface {
	ListProducts(ctx context.Context, params upstream.ListParams) ([]catalog.ItemSnapshot, error)
	GetProduct(ctx context.Context, id int64) (*catalog.ItemSnapshot, error)
	CreateProduct(ctx context.Context, payload map[string]any) (*catalog.ItemSnapshot, error)
	UpdateProduct(ctx context.Context, id int64, payload map[string]any) (*catalog.ItemSnapshot, error)
	DeleteProduct(ctx context.Context, id int64, force bool) error
}

// WriteService forwards catalog mutations upstream and replicates the
// result. A mutation the upstream rejects never touches the replica.
type WriteService struct {
	upstream   UpstreamCatalog
	replicator *Replicator
	logger     *zap.Logger
}

// NewWriteService creates a WriteService.
func NewWriteService(upstreamClient UpstreamCatalog, replicator *Replicator, logger *zap.Logger) *WriteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WriteService{
		upstream:   upstreamClient,
		replicator: replicator,
		logger:     logger,
	}
}

// CreateProduct creates the product upstream, then syncs the returned
// snapshot into the replica.
func (s *WriteService) CreateProduct(ctx context.Context, payload map[string]any) (*catalog.ItemSnapshot, error) {
	if len(payload) == 0 {
		return nil, shared.ErrInvalidInput
	}

	snapshot, err := s.upstream.CreateProduct(ctx, payload)
	if err != nil {
		return nil, err
	}

	if err := s.replicator.Sync(ctx, snapshot); err != nil {
		// The upstream write succeeded; the replica will converge on the
		// next sync of this item.
		s.logger.Error("created product but replication failed",
			zap.Int64("item_id", snapshot.ID),
			zap.Error(err))
		return snapshot, fmt.Errorf("replicate created product %d: %w", snapshot.ID, err)
	}
	return snapshot, nil
}

// UpdateProduct applies a partial update upstream, then syncs the
// returned snapshot.
func (s *WriteService) UpdateProduct(ctx context.Context, id int64, payload map[string]any) (*catalog.ItemSnapshot, error) {
	if len(payload) == 0 {
		return nil, shared.ErrInvalidInput
	}

	snapshot, err := s.upstream.UpdateProduct(ctx, id, payload)
	if err != nil {
		return nil, err
	}

	if err := s.replicator.Sync(ctx, snapshot); err != nil {
		s.logger.Error("updated product but replication failed",
			zap.Int64("item_id", id),
			zap.Error(err))
		return snapshot, fmt.Errorf("replicate updated product %d: %w", id, err)
	}
	return snapshot, nil
}

// DeleteProduct deletes the product upstream, then removes it from the
// replica. An item already gone on either side is not an error.
func (s *WriteService) DeleteProduct(ctx context.Context, id int64, force bool) error {
	if err := s.upstream.DeleteProduct(ctx, id, force); err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
	}

	if err := s.replicator.Delete(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}

// Resync re-fetches one product from upstream and replays it into the
// replica. A product the upstream no longer has is deleted locally.
func (s *WriteService) Resync(ctx context.Context, id int64) error {
	snapshot, err := s.upstream.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			if delErr := s.replicator.Delete(ctx, id); delErr != nil && !errors.Is(delErr, shared.ErrNotFound) {
				return delErr
			}
			return nil
		}
		return err
	}
	return s.replicator.Sync(ctx, snapshot)
}

// ResyncAll walks the upstream catalog page by page and replays every
// snapshot. Individual item failures are logged and skipped so one bad
// snapshot cannot abort a full re-sync. Returns the number of items
// synced.
func (s *WriteService) ResyncAll(ctx context.Context, pageSize int) (int, error) {
	if pageSize <= 0 {
		pageSize = 100
	}

	synced := 0
	for page := 1; ; page++ {
		snapshots, err := s.upstream.ListProducts(ctx, upstream.ListParams{
			Page:    page,
			PerPage: pageSize,
		})
		if err != nil {
			return synced, fmt.Errorf("list upstream page %d: %w", page, err)
		}
		if len(snapshots) == 0 {
			return synced, nil
		}

		for i := range snapshots {
			if err := s.replicator.Sync(ctx, &snapshots[i]); err != nil {
				s.logger.Error("resync: item failed",
					zap.Int64("item_id", snapshots[i].ID),
					zap.Error(err))
				continue
			}
			synced++
		}

		if len(snapshots) < pageSize {
			return synced, nil
		}
	}
}
