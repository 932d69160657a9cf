package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping() error
}

// SystemHandler serves liveness and readiness endpoints.
type SystemHandler struct {
	BaseHandler
	db      Pinger
	version string
	started time.Time
}

// NewSystemHandler creates a SystemHandler.
func NewSystemHandler(db Pinger, version string) *SystemHandler {
	return &SystemHandler{db: db, version: version, started: time.Now()}
}

// Health handles GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, gin.H{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

// Ready handles GET /ready. Readiness fails when the replica database is
// unreachable; the cache and upstream are soft dependencies and do not
// gate readiness.
func (h *SystemHandler) Ready(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(dto.ErrCodeInternal, "Database unreachable"))
		return
	}
	h.Success(c, gin.H{"status": "ready"})
}
