package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	appcatalog "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// SyncHandler serves the replication endpoints: upstream webhooks and
// operator-triggered re-syncs.
type SyncHandler struct {
	BaseHandler
	replicator *appcatalog.Replicator
	writes     *appcatalog.WriteService
}

// NewSyncHandler creates a SyncHandler.
func NewSyncHandler(replicator *appcatalog.Replicator, writes *appcatalog.WriteService) *SyncHandler {
	return &SyncHandler{replicator: replicator, writes: writes}
}

// ProductUpdated handles POST /webhooks/product-updated. The body is the
// upstream product snapshot; created and updated events share this
// endpoint because both carry the full snapshot.
func (h *SyncHandler) ProductUpdated(c *gin.Context) {
	var snapshot catalog.ItemSnapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		h.BadRequest(c, "Invalid snapshot payload")
		return
	}

	// Stale snapshots are skipped inside Sync; the webhook is still
	// acknowledged so the upstream does not retry an out-of-order event.
	if err := h.replicator.Sync(c.Request.Context(), &snapshot); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"item_id": snapshot.ID})
}

// deleteEvent is the payload of the product-deleted webhook.
type deleteEvent struct {
	ID int64 `json:"id" binding:"required"`
}

// ProductDeleted handles POST /webhooks/product-deleted
func (h *SyncHandler) ProductDeleted(c *gin.Context) {
	var event deleteEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		h.BadRequest(c, bindingMessage(err))
		return
	}

	if err := h.replicator.Delete(c.Request.Context(), event.ID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// Already gone; deletes are idempotent.
			h.Success(c, gin.H{"item_id": event.ID})
			return
		}
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"item_id": event.ID})
}

// ResyncProduct handles POST /sync/products/:id. It re-fetches the
// product from upstream and replays it, deleting locally when upstream
// no longer has it.
func (h *SyncHandler) ResyncProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	if err := h.writes.Resync(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"item_id": id})
}

// resyncRequest tunes a full catalog re-sync.
type resyncRequest struct {
	PageSize int `json:"page_size"`
}

// ResyncAll handles POST /sync/products. The walk is synchronous; the
// response reports how many items were replayed.
func (h *SyncHandler) ResyncAll(c *gin.Context) {
	var req resyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "Invalid request body")
			return
		}
	}

	synced, err := h.writes.ResyncAll(c.Request.Context(), req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"synced": synced})
}
