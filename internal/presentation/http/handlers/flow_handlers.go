package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/postpal/postpal-go/internal/application/services"
	"github.com/postpal/postpal-go/internal/infrastructure/observability/logging"
	"github.com/postpal/postpal-go/internal/infrastructure/observability/performance"
	"github.com/postpal/postpal-go/internal/presentation/http/middleware"
)

// FlowHandlers exposes the flow controller over HTTP for the marketing site.
type FlowHandlers struct {
	flowService *services.FlowService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewFlowHandlers creates flow handlers with injected dependencies
func NewFlowHandlers(flowService *services.FlowService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *FlowHandlers {
	return &FlowHandlers{
		flowService: flowService,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// PostView handles POST /api/v1/flow/view - view state computation for a page load
func (h *FlowHandlers) PostView(c *gin.Context) {
	marker := h.perfTracker.StartOperation("post_flow_view_request")
	defer marker.Complete()

	var body struct {
		PagePath         string `json:"page_path"`
		Query            string `json:"query"`
		RequireEmailGate bool   `json:"require_email_gate"`
		AssetID          string `json:"asset_id"`
	}
	_ = c.ShouldBindJSON(&body)

	query, err := url.ParseQuery(body.Query)
	if err != nil {
		query = url.Values{}
	}

	result := h.flowService.ComputeView(c.Request.Context(), services.ViewRequest{
		SessionID:        middleware.GetSessionID(c),
		PagePath:         body.PagePath,
		Query:            query,
		RequireEmailGate: body.RequireEmailGate,
		AssetID:          body.AssetID,
	})

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for PostView request", "duration", marker.Duration, "success", true)

	c.JSON(http.StatusOK, gin.H{
		"state":            result.State,
		"name":             result.Name,
		"tokenMatchStatus": result.TokenMatchStatus,
		"invalidKnownLink": result.InvalidKnownLink,
		"lastEmail":        result.LastEmail,
		"leadRecordId":     recordIDOrNull(result.LeadRecordID),
	})
}

// PostSubmit handles POST /api/v1/flow/submit - form submission through the flow controller
func (h *FlowHandlers) PostSubmit(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("post_flow_submit_request")
	defer marker.Complete()

	var body struct {
		PagePath         string `json:"page_path"`
		Email            string `json:"email"`
		Name             string `json:"name"`
		ConsentMarketing any    `json:"consent_marketing"`
		Token            string `json:"token"`
		AssetID          string `json:"asset_id"`
		UtmSource        string `json:"utm_source"`
		UtmMedium        string `json:"utm_medium"`
		UtmCampaign      string `json:"utm_campaign"`
		UtmContent       string `json:"utm_content"`
		TsSubmitted      string `json:"ts_submitted"`
	}
	_ = c.ShouldBindJSON(&body)

	result, err := h.flowService.Submit(c.Request.Context(), services.SubmitRequest{
		SessionID:        middleware.GetSessionID(c),
		PagePath:         body.PagePath,
		Email:            body.Email,
		Name:             body.Name,
		ConsentMarketing: body.ConsentMarketing,
		Token:            body.Token,
		AssetID:          body.AssetID,
		UtmSource:        body.UtmSource,
		UtmMedium:        body.UtmMedium,
		UtmCampaign:      body.UtmCampaign,
		UtmContent:       body.UtmContent,
		TsSubmitted:      body.TsSubmitted,
	})
	if err != nil {
		marker.SetSuccess(false)
		if errors.Is(err, services.ErrInvalidEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid_email"})
			return
		}
		h.logger.Flow().Error("Flow submit failed", "error", err.Error(), "duration", time.Since(start))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "capture_failed"})
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for PostSubmit request", "duration", marker.Duration, "success", true)

	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"state":        result.State,
		"redirectUrl":  result.RedirectURL,
		"leadRecordId": recordIDOrNull(result.LeadRecordID),
		"tokenMatched": result.TokenMatched,
	})
}

// PostEvent handles POST /api/v1/flow/event - tracked click beacons
func (h *FlowHandlers) PostEvent(c *gin.Context) {
	marker := h.perfTracker.StartOperation("post_flow_event_request")
	defer marker.Complete()

	var body struct {
		Kind    string `json:"kind"`
		State   string `json:"state"`
		AssetID string `json:"asset_id"`
	}
	_ = c.ShouldBindJSON(&body)

	eventName, err := h.flowService.RecordClick(services.ClickRequest{
		SessionID: middleware.GetSessionID(c),
		Kind:      body.Kind,
		State:     body.State,
		AssetID:   body.AssetID,
	})
	if err != nil {
		marker.SetSuccess(false)
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unknown_event_kind"})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"ok": true, "event": eventName})
}
