// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/postpal/postpal-go/internal/application/services"
	"github.com/postpal/postpal-go/internal/domain/leads"
	"github.com/postpal/postpal-go/internal/infrastructure/observability/logging"
	"github.com/postpal/postpal-go/internal/infrastructure/observability/performance"
)

// LeadMagnetHandlers contains the lead capture, download tracking, and
// known-lead resolution HTTP handlers.
type LeadMagnetHandlers struct {
	captureService  *services.CaptureService
	downloadService *services.DownloadService
	resolveService  *services.ResolveService
	logger          *logging.ChanneledLogger
	perfTracker     *performance.Tracker
}

// NewLeadMagnetHandlers creates lead-magnet handlers with injected dependencies
func NewLeadMagnetHandlers(captureService *services.CaptureService, downloadService *services.DownloadService, resolveService *services.ResolveService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *LeadMagnetHandlers {
	return &LeadMagnetHandlers{
		captureService:  captureService,
		downloadService: downloadService,
		resolveService:  resolveService,
		logger:          logger,
		perfTracker:     perfTracker,
	}
}

// leadMagnetBody is the shared request body for capture and download. All
// fields are optional at the wire level; validation happens in the services.
type leadMagnetBody struct {
	Email            string `json:"email"`
	Token            string `json:"token"`
	Name             string `json:"name"`
	ConsentMarketing any    `json:"consent_marketing"`
	LeadSource       string `json:"lead_source"`
	AssetID          string `json:"asset_id"`
	UtmSource        string `json:"utm_source"`
	UtmMedium        string `json:"utm_medium"`
	UtmCampaign      string `json:"utm_campaign"`
	UtmContent       string `json:"utm_content"`
	TsSubmitted      string `json:"ts_submitted"`
	FlowType         string `json:"flow_type"`
	StateRequested   string `json:"state_requested"`
	PagePath         string `json:"page_path"`
	LeadRecordID     string `json:"lead_record_id"`
	TokenMatched     any    `json:"token_matched"`
}

// bindBody parses the JSON body, treating a malformed or absent body as
// empty. These endpoints also receive beacons, which must never 400 on shape.
func bindBody(c *gin.Context) leadMagnetBody {
	var body leadMagnetBody
	_ = c.ShouldBindJSON(&body)
	return body
}

func recordIDOrNull(recordID string) any {
	if recordID == "" {
		return nil
	}
	return recordID
}

// PostCapture handles POST /api/v1/lead-magnet/capture - form submission persistence
func (h *LeadMagnetHandlers) PostCapture(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("post_capture_request")
	defer marker.Complete()
	h.logger.Leads().Debug("Received capture request", "method", c.Request.Method, "path", c.Request.URL.Path)

	body := bindBody(c)
	result, err := h.captureService.Capture(c.Request.Context(), services.CaptureRequest{
		Email:            body.Email,
		Token:            body.Token,
		Name:             body.Name,
		ConsentMarketing: body.ConsentMarketing,
		LeadSource:       body.LeadSource,
		AssetID:          body.AssetID,
		UtmSource:        body.UtmSource,
		UtmMedium:        body.UtmMedium,
		UtmCampaign:      body.UtmCampaign,
		UtmContent:       body.UtmContent,
		TsSubmitted:      body.TsSubmitted,
		FlowType:         body.FlowType,
		StateRequested:   body.StateRequested,
		PagePath:         body.PagePath,
	})
	if err != nil {
		marker.SetSuccess(false)
		if errors.Is(err, services.ErrInvalidEmail) {
			h.logger.Leads().Debug("Capture rejected", "reason", "invalid_email", "duration", time.Since(start))
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid_email"})
			return
		}
		h.logger.Leads().Error("Capture failed", "error", err.Error(), "duration", time.Since(start))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "capture_failed"})
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for PostCapture request", "duration", marker.Duration, "success", true)

	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"leadRecordId": recordIDOrNull(result.LeadRecordID),
		"tokenMatched": result.TokenMatched,
		"state":        result.State,
	})
}

// PostDownload handles POST /api/v1/lead-magnet/download - download beacon tracking
func (h *LeadMagnetHandlers) PostDownload(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("post_download_request")
	defer marker.Complete()
	h.logger.Leads().Debug("Received download request", "method", c.Request.Method, "path", c.Request.URL.Path)

	body := bindBody(c)
	result, err := h.downloadService.Track(c.Request.Context(), services.DownloadRequest{
		LeadRecordID:   body.LeadRecordID,
		Token:          body.Token,
		Name:           body.Name,
		AssetID:        body.AssetID,
		LeadSource:     body.LeadSource,
		UtmSource:      body.UtmSource,
		UtmMedium:      body.UtmMedium,
		UtmCampaign:    body.UtmCampaign,
		UtmContent:     body.UtmContent,
		FlowType:       body.FlowType,
		StateRequested: body.StateRequested,
		PagePath:       body.PagePath,
		TokenMatched:   body.TokenMatched,
	})
	if err != nil {
		marker.SetSuccess(false)
		h.logger.Leads().Error("Download tracking failed", "error", err.Error(), "duration", time.Since(start))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "download_failed"})
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for PostDownload request", "duration", marker.Duration, "success", true)

	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"status":       result.Status,
		"leadRecordId": recordIDOrNull(result.LeadRecordID),
		"tokenMatched": result.TokenMatched,
	})
}

// GetResolveKnown handles GET /api/v1/lead-magnet/resolve-known - known-lead lookup by token
func (h *LeadMagnetHandlers) GetResolveKnown(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("get_resolve_known_request")
	defer marker.Complete()
	h.logger.Leads().Debug("Received resolve-known request", "method", c.Request.Method, "path", c.Request.URL.Path)

	token := c.Query("token")
	fallbackName := c.Query("firstname")

	result, err := h.resolveService.Resolve(c.Request.Context(), token, fallbackName)
	if err != nil {
		marker.SetSuccess(false)
		if errors.Is(err, services.ErrInvalidToken) {
			h.logger.Leads().Debug("Resolve rejected", "reason", "invalid_token", "duration", time.Since(start))
			c.JSON(http.StatusBadRequest, gin.H{"known": false, "error": "invalid_token"})
			return
		}
		// The attempt still marks a known-lead entry point; report that
		// alongside the failure so the page can render its fallback.
		h.logger.Leads().Error("Resolve failed", "error", err.Error(), "duration", time.Since(start))
		c.JSON(http.StatusInternalServerError, gin.H{
			"known":        result.Known,
			"tokenMatched": result.TokenMatched,
			"name":         result.Name,
			"error":        "lookup_failed",
		})
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for GetResolveKnown request", "duration", marker.Duration, "success", true)

	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"known":        result.Known,
		"tokenMatched": result.TokenMatched,
		"name":         result.Name,
		"leadRecordId": recordIDOrNull(result.LeadRecordID),
		"token":        result.Token,
	})
}

// GetAsset handles GET /api/v1/lead-magnet/asset - lead-magnet asset metadata
func (h *LeadMagnetHandlers) GetAsset(c *gin.Context) {
	c.JSON(http.StatusOK, leads.ReportingPlaybookAsset)
}
