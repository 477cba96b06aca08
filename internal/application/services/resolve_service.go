package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/postpal/postpal-go/internal/domain/leads"
	"github.com/postpal/postpal-go/internal/infrastructure/observability/logging"
)

// ErrInvalidToken rejects a resolve request before any store call is made.
var ErrInvalidToken = errors.New("missing or invalid token")

// ResolveResult reports whether a token belongs to a known lead.
//
// Known reflects the attempt, not the lookup: a well-formed token implies a
// known-lead entry point even when the store has no matching record.
type ResolveResult struct {
	Known        bool
	TokenMatched bool
	Name         string
	LeadRecordID string
	Token        string
}

// ResolveService answers known-lead lookups for the flow controller.
type ResolveService struct {
	store  leads.RecordStore
	logger *logging.ChanneledLogger
}

// NewResolveService creates the known-lead resolver.
func NewResolveService(store leads.RecordStore, logger *logging.ChanneledLogger) *ResolveService {
	return &ResolveService{store: store, logger: logger}
}

// Resolve looks up a token. On store failure the returned result is still
// populated (known=true, unmatched) alongside the error so the handler can
// shape a 500 body.
func (s *ResolveService) Resolve(ctx context.Context, token, fallbackName string) (*ResolveResult, error) {
	normalizedToken := leads.NormalizeToken(token)
	fallback := leads.NormalizeFirstName(fallbackName)

	if normalizedToken == "" {
		return &ResolveResult{Known: false, Name: fallback}, ErrInvalidToken
	}

	match, err := s.store.FindByToken(ctx, normalizedToken)
	if err != nil {
		s.logger.Leads().Error("Known-lead lookup failed",
			"token", normalizedToken, "error", err.Error())
		return &ResolveResult{
			Known:        true,
			TokenMatched: false,
			Name:         fallback,
			Token:        normalizedToken,
		}, fmt.Errorf("failed to resolve known lead: %w", err)
	}

	name := match.FirstName
	if name == "" {
		name = fallback
	}

	return &ResolveResult{
		Known:        true,
		TokenMatched: match.TokenMatched,
		Name:         name,
		LeadRecordID: match.RecordID,
		Token:        normalizedToken,
	}, nil
}
