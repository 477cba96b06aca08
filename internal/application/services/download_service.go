package services

import (
	"context"
	"fmt"

	"github.com/postpal/postpal-go/internal/domain/leads"
	"github.com/postpal/postpal-go/internal/infrastructure/observability/logging"
)

// Download tracking outcomes, in resolution order.
const (
	StatusUpdatedByRecordID         = "updated_by_record_id"
	StatusUpdatedByToken            = "updated_by_token"
	StatusCreatedFromUnmatchedToken = "created_from_unmatched_token"
	StatusNoopNoIdentifier          = "noop_no_identifier"
)

// DownloadRequest is a download beacon body.
type DownloadRequest struct {
	LeadRecordID   string
	Token          string
	Name           string
	AssetID        string
	LeadSource     string
	UtmSource      string
	UtmMedium      string
	UtmCampaign    string
	UtmContent     string
	FlowType       string
	StateRequested string
	PagePath       string
	TokenMatched   any
}

// DownloadResult reports how a download was attributed.
type DownloadResult struct {
	Status       string
	LeadRecordID string
	TokenMatched bool
}

// DownloadService records download events against the record store.
// Tracking is best-effort: a missing identifier is a successful no-op, and a
// failed record-id update falls through to token resolution.
type DownloadService struct {
	store  leads.RecordStore
	logger *logging.ChanneledLogger
}

// NewDownloadService creates the download tracking service.
func NewDownloadService(store leads.RecordStore, logger *logging.ChanneledLogger) *DownloadService {
	return &DownloadService{store: store, logger: logger}
}

// Track resolves the download to a record and increments its counter.
func (s *DownloadService) Track(ctx context.Context, req DownloadRequest) (*DownloadResult, error) {
	leadRecordID := leads.NormalizeRecordID(req.LeadRecordID)
	token := leads.NormalizeToken(req.Token)

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
	sharedFields := leads.BuildFields(leads.FieldInput{
		Token:          token,
		FirstName:      req.Name,
		AssetID:        req.AssetID,
		LeadSource:     leadSource,
		UtmSource:      req.UtmSource,
		UtmMedium:      req.UtmMedium,
		UtmCampaign:    req.UtmCampaign,
		UtmContent:     req.UtmContent,
		FlowType:       flowType,
		StateRequested: req.StateRequested,
		PagePath:       req.PagePath,
		LastSeenAt:     nowISO,
	})

	if leadRecordID != "" {
		result, err := s.trackByRecordID(ctx, leadRecordID, req.TokenMatched, sharedFields)
		if err == nil {
			return result, nil
		}
		// Fall through to token resolution; the id may be stale or foreign.
		s.logger.Leads().Error("Failed to update download by record id",
			"leadRecordId", leadRecordID, "error", err.Error())
	}

	if token != "" {
		return s.trackByToken(ctx, token, sharedFields, nowISO)
	}

	return &DownloadResult{Status: StatusNoopNoIdentifier}, nil
}

func (s *DownloadService) trackByRecordID(ctx context.Context, recordID string, tokenMatched any, sharedFields map[string]any) (*DownloadResult, error) {
	extra := make(map[string]any, len(sharedFields)+1)
	for key, value := range sharedFields {
		extra[key] = value
	}
	if matched, ok := leads.NormalizeBool(tokenMatched); ok {
		if matched {
			extra[leads.FieldTokenMatchStatus] = leads.TokenMatched
		} else {
			extra[leads.FieldTokenMatchStatus] = leads.TokenUnmatched
		}
	}

	updated, err := s.store.IncrementDownload(ctx, recordID, extra)
	if err != nil {
		return nil, err
	}

	s.logger.Leads().Info("Download tracked",
		"status", StatusUpdatedByRecordID, "leadRecordId", updated.RecordID)
	return &DownloadResult{
		Status:       StatusUpdatedByRecordID,
		LeadRecordID: updated.RecordID,
		TokenMatched: updated.TokenMatched,
	}, nil
}

func (s *DownloadService) trackByToken(ctx context.Context, token string, sharedFields map[string]any, nowISO string) (*DownloadResult, error) {
	match, err := s.store.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up token for download: %w", err)
	}

	if match.RecordID != "" && match.TokenMatched {
		extra := make(map[string]any, len(sharedFields)+1)
		for key, value := range sharedFields {
			extra[key] = value
		}
		extra[leads.FieldTokenMatchStatus] = leads.TokenMatched

		updated, err := s.store.IncrementDownload(ctx, match.RecordID, extra)
		if err != nil {
			return nil, fmt.Errorf("failed to increment download by token: %w", err)
		}

		s.logger.Leads().Info("Download tracked",
			"status", StatusUpdatedByToken, "leadRecordId", updated.RecordID)
		return &DownloadResult{
			Status:       StatusUpdatedByToken,
			LeadRecordID: updated.RecordID,
			TokenMatched: true,
		}, nil
	}

	// First-touch download via a shared or outreach link: create the record
	// now so the download is never lost.
	fields := make(map[string]any, len(sharedFields)+4)
	for key, value := range sharedFields {
		fields[key] = value
	}
	fields[leads.FieldToken] = token
	fields[leads.FieldTsDownloaded] = nowISO
	fields[leads.FieldDownloadCount] = 1
	fields[leads.FieldTokenMatchStatus] = leads.TokenUnmatched

	created, err := s.store.Create(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create record from unmatched token: %w", err)
	}

	s.logger.Leads().Info("Download tracked",
		"status", StatusCreatedFromUnmatchedToken, "leadRecordId", created.RecordID)
	return &DownloadResult{
		Status:       StatusCreatedFromUnmatchedToken,
		LeadRecordID: created.RecordID,
		TokenMatched: false,
	}, nil
}
