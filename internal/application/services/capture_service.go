// Package services contains the lead-magnet application services.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/postpal/postpal-go/internal/domain/leads"
	"github.com/postpal/postpal-go/internal/infrastructure/email"
	"github.com/postpal/postpal-go/internal/infrastructure/observability/logging"
)

// ErrInvalidEmail rejects a capture before any store call is made.
var ErrInvalidEmail = errors.New("invalid email")

// CaptureRequest is a raw form submission bound from the API body.
type CaptureRequest struct {
	Email            string
	Token            string
	Name             string
	ConsentMarketing any
	LeadSource       string
	AssetID          string
	UtmSource        string
	UtmMedium        string
	UtmCampaign      string
	UtmContent       string
	TsSubmitted      string
	FlowType         string
	StateRequested   string
	PagePath         string
}

// CaptureResult reports the outcome of a capture.
type CaptureResult struct {
	LeadRecordID string
	TokenMatched bool
	State        string
	Created      bool
}

// CaptureService decides create-vs-update against the record store for form
// submissions.
type CaptureService struct {
	store    leads.RecordStore
	notifier email.Service
	logger   *logging.ChanneledLogger
}

// NewCaptureService creates the capture service. notifier may be nil when
// lead notifications are not configured.
func NewCaptureService(store leads.RecordStore, notifier email.Service, logger *logging.ChanneledLogger) *CaptureService {
	return &CaptureService{store: store, notifier: notifier, logger: logger}
}

// Capture validates the submission and writes it to the record store.
//
// No token: always create, classify by UTM only, derive a fallback display
// name from the email's local part. Token present: update the matched record
// (preserving its id and history), or create a new record carrying the
// foreign token with token_match_status=unmatched.
func (s *CaptureService) Capture(ctx context.Context, req CaptureRequest) (*CaptureResult, error) {
	captureEmail := leads.NormalizeEmail(req.Email)
	if captureEmail == "" {
		return nil, ErrInvalidEmail
	}

	token := leads.NormalizeToken(req.Token)
	firstName := leads.NormalizeFirstName(req.Name)

	leadSource := leads.NormalizeLeadSource(req.LeadSource)
	if leadSource == "" {
		leadSource = leads.DeriveLeadSource(token, req.UtmSource, req.UtmMedium)
	}

	flowType := req.FlowType
	if flowType == "" {
		if token != "" {
			flowType = leads.FlowKnown
		} else {
			flowType = leads.FlowGated
		}
	}

	nowISO := leads.NowISO()
	tsSubmitted := req.TsSubmitted
	if tsSubmitted == "" {
		tsSubmitted = nowISO
	}

	input := leads.FieldInput{
		Email:            captureEmail,
		Token:            token,
		FirstName:        firstName,
		ConsentMarketing: req.ConsentMarketing,
		LeadSource:       leadSource,
		AssetID:          req.AssetID,
		UtmSource:        req.UtmSource,
		UtmMedium:        req.UtmMedium,
		UtmCampaign:      req.UtmCampaign,
		UtmContent:       req.UtmContent,
		TsSubmitted:      tsSubmitted,
		FlowType:         flowType,
		StateRequested:   req.StateRequested,
		PagePath:         req.PagePath,
		LastSeenAt:       nowISO,
	}

	if token != "" {
		return s.captureWithToken(ctx, input, token)
	}

	if firstName == "" {
		input.FirstName = leads.DeriveNameFromEmail(captureEmail)
	}
	input.TokenMatchStatus = leads.TokenNotApplicable

	created, err := s.store.Create(ctx, leads.BuildFields(input))
	if err != nil {
		return nil, fmt.Errorf("failed to create lead record: %w", err)
	}

	s.logger.Leads().Info("Lead captured",
		"leadRecordId", created.RecordID, "leadSource", leadSource, "tokenMatched", false)
	s.notifyNewLead(captureEmail, input.FirstName, leadSource, req.AssetID, req.PagePath)

	return &CaptureResult{
		LeadRecordID: created.RecordID,
		TokenMatched: false,
		State:        StateSubmitted,
		Created:      true,
	}, nil
}

func (s *CaptureService) captureWithToken(ctx context.Context, input leads.FieldInput, token string) (*CaptureResult, error) {
	match, err := s.store.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	if match.TokenMatched {
		input.TokenMatchStatus = leads.TokenMatched
	} else {
		input.TokenMatchStatus = leads.TokenUnmatched
	}
	fields := leads.BuildFields(input)

	if match.RecordID != "" && match.TokenMatched {
		updated, err := s.store.Update(ctx, match.RecordID, fields)
		if err != nil {
			return nil, fmt.Errorf("failed to update lead record: %w", err)
		}

		s.logger.Leads().Info("Lead captured",
			"leadRecordId", updated.RecordID, "tokenMatched", true)
		return &CaptureResult{
			LeadRecordID: updated.RecordID,
			TokenMatched: true,
			State:        StateSubmitted,
		}, nil
	}

	// Unmatched token: the record exists but is not linked to a known-lead
	// identity. No reconciliation with a later legitimate holder is attempted.
	created, err := s.store.Create(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create lead record: %w", err)
	}

	s.logger.Leads().Info("Lead captured",
		"leadRecordId", created.RecordID, "tokenMatched", false, "tokenMatchStatus", leads.TokenUnmatched)
	s.notifyNewLead(input.Email, input.FirstName, input.LeadSource, input.AssetID, input.PagePath)

	return &CaptureResult{
		LeadRecordID: created.RecordID,
		TokenMatched: false,
		State:        StateSubmitted,
		Created:      true,
	}, nil
}

// notifyNewLead delivers the sales notification without ever failing or
// delaying the capture response.
func (s *CaptureService) notifyNewLead(leadEmail, name, source, assetID, pagePath string) {
	if s.notifier == nil {
		return
	}

	payload := email.NotificationPayload{
		Email:      leadEmail,
		Name:       name,
		LeadSource: source,
		AssetID:    assetID,
		PagePath:   pagePath,
	}
	go func() {
		if err := s.notifier.SendLeadNotification(payload); err != nil {
			s.logger.Email().Error("Lead notification delivery failed",
				"leadEmail", leadEmail, "error", err.Error())
		}
	}()
}
