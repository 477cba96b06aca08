package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/postpal/postpal-go/internal/infrastructure/observability/performance"
	"github.com/postpal/postpal-go/internal/infrastructure/persistence/database"
)

// StatusHandlers reports service health.
type StatusHandlers struct {
	eventLogDB  *database.DB
	perfTracker *performance.Tracker
}

// NewStatusHandlers creates status handlers with injected dependencies
func NewStatusHandlers(eventLogDB *database.DB, perfTracker *performance.Tracker) *StatusHandlers {
	return &StatusHandlers{
		eventLogDB:  eventLogDB,
		perfTracker: perfTracker,
	}
}

// GetStatus handles GET /api/v1/status - liveness plus event-log health
func (h *StatusHandlers) GetStatus(c *gin.Context) {
	eventLog := "ok"
	status := http.StatusOK
	if err := h.eventLogDB.Ping(); err != nil {
		eventLog = "unavailable"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":   "up",
		"uptime":   h.perfTracker.Uptime().String(),
		"eventLog": eventLog,
		"driver":   h.eventLogDB.Driver,
	})
}
