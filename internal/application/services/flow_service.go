package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/postpal/postpal-go/internal/domain/analytics"
	"github.com/postpal/postpal-go/internal/domain/leads"
	"github.com/postpal/postpal-go/internal/infrastructure/caching/stores"
	"github.com/postpal/postpal-go/internal/infrastructure/observability/logging"
)

// Lead-magnet view states. State is committed via redirect URL parameters,
// never via server-rendered session, so every state is bookmarkable.
const (
	StateGated     = "gated"
	StateSubmitted = "submitted"
	StateKnown     = "known"
)

// ViewRequest describes one page load of the lead-magnet page.
type ViewRequest struct {
	SessionID        string
	PagePath         string
	Query            url.Values
	RequireEmailGate bool
	AssetID          string
}

// ViewResult tells the page which state block to show.
type ViewResult struct {
	State            string
	Name             string
	TokenMatchStatus string
	InvalidKnownLink bool
	LastEmail        string
	LeadRecordID     string
	Token            string
}

// SubmitRequest is a form submission routed through the flow controller.
type SubmitRequest struct {
	SessionID        string
	PagePath         string
	Email            string
	Name             string
	ConsentMarketing any
	Token            string
	AssetID          string
	UtmSource        string
	UtmMedium        string
	UtmCampaign      string
	UtmContent       string
	TsSubmitted      string
}

// SubmitResult carries the redirect that commits the submitted state.
type SubmitResult struct {
	State        string
	RedirectURL  string
	LeadRecordID string
	TokenMatched bool
}

// ClickRequest records a tracked click (download or secondary CTA).
type ClickRequest struct {
	SessionID string
	Kind      string
	State     string
	AssetID   string
}

// Tracked click kinds.
const (
	ClickDownload  = "download"
	ClickSecondary = "secondary"
)

// FlowService is the lead-magnet flow controller: it computes the view state
// from URL parameters plus the cached session payload, resolves known leads,
// and emits exactly one view event per computation.
type FlowService struct {
	capture  *CaptureService
	resolver *ResolveService
	sessions *stores.SessionStore
	sink     analytics.EventSink
	logger   *logging.ChanneledLogger
}

// NewFlowService creates the flow controller service.
func NewFlowService(capture *CaptureService, resolver *ResolveService, sessions *stores.SessionStore, sink analytics.EventSink, logger *logging.ChanneledLogger) *FlowService {
	return &FlowService{
		capture:  capture,
		resolver: resolver,
		sessions: sessions,
		sink:     sink,
		logger:   logger,
	}
}

// ComputeView derives the view state for a page load.
//
// gated is the default. submitted requires the URL to say so, plus a cached
// email when the page enforces its gate. known requires a well-formed token,
// an explicit known-state request, and no separate email gate; entering it
// triggers a store lookup that corrects the optimistically rendered name and
// additionally emits one known-unlock-view event.
func (s *FlowService) ComputeView(ctx context.Context, req ViewRequest) *ViewResult {
	assetID := req.AssetID
	if assetID == "" {
		assetID = leads.ReportingPlaybookAsset.ID
	}

	requestedState := req.Query.Get("state")
	token := leads.NormalizeToken(req.Query.Get("token"))
	fallbackName := leads.NormalizeFirstName(req.Query.Get("firstname"))

	storedPayload, hasStored := s.sessions.Get(req.SessionID)
	hasStoredEmail := hasStored && storedPayload.Email != ""

	state := StateGated
	if requestedState == StateSubmitted && (!req.RequireEmailGate || hasStoredEmail) {
		state = StateSubmitted
	}
	if token != "" && requestedState == StateKnown && !req.RequireEmailGate {
		state = StateKnown
	}

	result := &ViewResult{
		State:            state,
		InvalidKnownLink: requestedState == StateKnown && token == "",
		Token:            token,
	}
	if hasStored {
		result.LastEmail = storedPayload.Email
		result.Name = storedPayload.Name
		result.LeadRecordID = storedPayload.LeadRecordID
	}
	if result.Name == "" {
		result.Name = fallbackName
	}

	leadSource := leads.DeriveLeadSource(token, req.Query.Get("utm_source"), req.Query.Get("utm_medium"))

	s.sink.Emit(analytics.EventView, map[string]any{
		analytics.AttrSessionID:  req.SessionID,
		analytics.AttrState:      state,
		analytics.AttrAssetID:    assetID,
		analytics.AttrLeadSource: leadSource,
	})

	if state == StateKnown {
		s.enterKnownState(ctx, req.SessionID, token, fallbackName, result)
	}

	s.logger.Flow().Debug("View state computed",
		"state", state, "requestedState", requestedState,
		"hasStoredEmail", hasStoredEmail, "tokenPresent", token != "")

	return result
}

// enterKnownState refreshes the displayed name and match status from the
// store. Lookup failure downgrades the match status, never the render.
func (s *FlowService) enterKnownState(ctx context.Context, sessionID, token, fallbackName string, result *ViewResult) {
	result.TokenMatchStatus = leads.TokenUnknown

	resolved, err := s.resolver.Resolve(ctx, token, fallbackName)
	if err == nil {
		if resolved.TokenMatched {
			result.TokenMatchStatus = leads.TokenMatched
		} else {
			result.TokenMatchStatus = leads.TokenUnmatched
		}
		if resolved.Name != "" {
			result.Name = resolved.Name
		}
		if resolved.LeadRecordID != "" {
			result.LeadRecordID = resolved.LeadRecordID
		}
	}

	s.sink.Emit(analytics.EventKnownUnlockView, map[string]any{
		analytics.AttrSessionID:        sessionID,
		analytics.AttrToken:            token,
		analytics.AttrTokenMatchStatus: result.TokenMatchStatus,
	})
}

// Submit captures the form submission and returns the redirect URL that
// commits the submitted state, with UTM attribution reattached.
func (s *FlowService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	assetID := req.AssetID
	if assetID == "" {
		assetID = leads.ReportingPlaybookAsset.ID
	}

	captured, err := s.capture.Capture(ctx, CaptureRequest{
		Email:            req.Email,
		Token:            req.Token,
		Name:             req.Name,
		ConsentMarketing: req.ConsentMarketing,
		AssetID:          assetID,
		UtmSource:        req.UtmSource,
		UtmMedium:        req.UtmMedium,
		UtmCampaign:      req.UtmCampaign,
		UtmContent:       req.UtmContent,
		TsSubmitted:      req.TsSubmitted,
		StateRequested:   StateSubmitted,
		PagePath:         req.PagePath,
	})
	if err != nil {
		return nil, err
	}

	token := leads.NormalizeToken(req.Token)
	consent, _ := leads.NormalizeBool(req.ConsentMarketing)
	leadSource := leads.DeriveLeadSource(token, req.UtmSource, req.UtmMedium)

	payload := &leads.StoredPayload{
		Email:            leads.NormalizeEmail(req.Email),
		Name:             leads.NormalizeFirstName(req.Name),
		ConsentMarketing: consent,
		LeadSource:       leadSource,
		AssetID:          assetID,
		UtmSource:        req.UtmSource,
		UtmMedium:        req.UtmMedium,
		UtmCampaign:      req.UtmCampaign,
		UtmContent:       req.UtmContent,
		TsSubmitted:      req.TsSubmitted,
		Token:            token,
		TokenMatched:     captured.TokenMatched,
		LeadRecordID:     captured.LeadRecordID,
		CapturedAt:       leads.NowISO(),
	}
	s.sessions.Set(req.SessionID, payload)

	s.sink.Emit(analytics.EventFormSubmit, map[string]any{
		analytics.AttrSessionID:        req.SessionID,
		analytics.AttrAssetID:          assetID,
		analytics.AttrLeadSource:       leadSource,
		analytics.AttrConsentMarketing: consent,
	})

	return &SubmitResult{
		State:        StateSubmitted,
		RedirectURL:  s.buildRedirectURL(req, token),
		LeadRecordID: captured.LeadRecordID,
		TokenMatched: captured.TokenMatched,
	}, nil
}

// buildRedirectURL rebuilds the page URL with state=submitted and UTM
// parameters reattached. The redirect is the state-commit mechanism.
func (s *FlowService) buildRedirectURL(req SubmitRequest, token string) string {
	params := url.Values{}
	params.Set("state", StateSubmitted)
	if token != "" {
		params.Set("token", token)
	}
	for key, value := range map[string]string{
		"utm_source":   req.UtmSource,
		"utm_medium":   req.UtmMedium,
		"utm_campaign": req.UtmCampaign,
		"utm_content":  req.UtmContent,
	} {
		if value != "" {
			params.Set(key, value)
		}
	}

	pagePath := req.PagePath
	if pagePath == "" {
		pagePath = "/"
	}
	redirect := url.URL{Path: pagePath, RawQuery: params.Encode()}
	return redirect.String()
}

// RecordClick emits the event for a tracked click and reports the event name.
func (s *FlowService) RecordClick(req ClickRequest) (string, error) {
	state := req.State
	if state == "" {
		state = StateGated
	}
	assetID := req.AssetID
	if assetID == "" {
		assetID = leads.ReportingPlaybookAsset.ID
	}

	switch req.Kind {
	case ClickDownload:
		s.sink.Emit(analytics.EventDownloadClick, map[string]any{
			analytics.AttrSessionID: req.SessionID,
			analytics.AttrState:     state,
			analytics.AttrAssetID:   assetID,
		})
		return analytics.EventDownloadClick, nil
	case ClickSecondary:
		s.sink.Emit(analytics.EventSecondaryCtaClick, map[string]any{
			analytics.AttrSessionID: req.SessionID,
			analytics.AttrState:     state,
		})
		return analytics.EventSecondaryCtaClick, nil
	}
	return "", fmt.Errorf("unknown click kind: %q", req.Kind)
}
