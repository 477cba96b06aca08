package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/postpal/postpal-go/internal/application/services"
	"github.com/postpal/postpal-go/internal/infrastructure/observability/logging"
	"github.com/postpal/postpal-go/internal/infrastructure/observability/performance"
	"github.com/postpal/postpal-go/pkg/config"
)

// AnalyticsHandlers serves the aggregated lead funnel to the admin dashboard.
type AnalyticsHandlers struct {
	analyticsService *services.LeadAnalyticsService
	logger           *logging.ChanneledLogger
	perfTracker      *performance.Tracker
}

// NewAnalyticsHandlers creates analytics handlers with injected dependencies
func NewAnalyticsHandlers(analyticsService *services.LeadAnalyticsService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		analyticsService: analyticsService,
		logger:           logger,
		perfTracker:      perfTracker,
	}
}

// GetLeadMetrics handles GET /api/v1/analytics/leads - lead funnel aggregation
func (h *AnalyticsHandlers) GetLeadMetrics(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("get_lead_metrics_request")
	defer marker.Complete()

	hours := config.MetricsDefaultHours
	if raw := c.Query("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be a positive integer"})
			return
		}
		hours = parsed
	}

	metrics, err := h.analyticsService.ComputeLeadMetrics(hours)
	if err != nil {
		marker.SetSuccess(false)
		h.logger.Analytics().Error("Lead metrics aggregation failed", "error", err.Error(), "duration", time.Since(start))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute lead metrics"})
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for GetLeadMetrics request", "duration", marker.Duration, "success", true)

	c.JSON(http.StatusOK, metrics)
}
