package services

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpal/postpal-go/internal/domain/analytics"
	"github.com/postpal/postpal-go/internal/domain/leads"
	"github.com/postpal/postpal-go/internal/infrastructure/caching/stores"
)

func newFlowService(t *testing.T, store *fakeStore, sink *fakeSink) (*FlowService, *stores.SessionStore) {
	t.Helper()
	logger := newTestLogger(t)
	sessions := stores.NewSessionStore(time.Hour)
	capture := NewCaptureService(store, nil, logger)
	resolver := NewResolveService(store, logger)
	return NewFlowService(capture, resolver, sessions, sink, logger), sessions
}

func TestComputeViewDefaultsToGated(t *testing.T) {
	sink := &fakeSink{}
	svc, _ := newFlowService(t, newFakeStore(), sink)

	result := svc.ComputeView(context.Background(), ViewRequest{
		SessionID: "sess-1",
		PagePath:  "/lead-magnet",
		Query:     url.Values{},
	})

	assert.Equal(t, StateGated, result.State)
	assert.False(t, result.InvalidKnownLink)

	require.Len(t, sink.events, 1, "exactly one view event per computation")
	assert.Equal(t, analytics.EventView, sink.events[0].Name)
	assert.Equal(t, StateGated, sink.events[0].Attributes[analytics.AttrState])
}

func TestComputeViewSubmittedRequiresStoredEmailWhenGated(t *testing.T) {
	sink := &fakeSink{}
	svc, sessions := newFlowService(t, newFakeStore(), sink)

	query := url.Values{"state": {StateSubmitted}}

	// Gate enforced, nothing cached: stays gated.
	result := svc.ComputeView(context.Background(), ViewRequest{
		SessionID:        "sess-1",
		Query:            query,
		RequireEmailGate: true,
	})
	assert.Equal(t, StateGated, result.State)

	// Cached email satisfies the gate.
	sessions.Set("sess-1", &leads.StoredPayload{Email: "anna@example.com", Name: "Anna"})
	result = svc.ComputeView(context.Background(), ViewRequest{
		SessionID:        "sess-1",
		Query:            query,
		RequireEmailGate: true,
	})
	assert.Equal(t, StateSubmitted, result.State)
	assert.Equal(t, "anna@example.com", result.LastEmail)
	assert.Equal(t, "Anna", result.Name)

	// Without the gate the URL alone is enough.
	result = svc.ComputeView(context.Background(), ViewRequest{
		SessionID: "sess-2",
		Query:     query,
	})
	assert.Equal(t, StateSubmitted, result.State)
}

func TestComputeViewKnownEntryEmitsUnlockEvent(t *testing.T) {
	store := newFakeStore()
	store.byToken["tok-abc"] = leads.TokenLookup{RecordID: "recExisting123", TokenMatched: true, FirstName: "Annika"}
	sink := &fakeSink{}
	svc, _ := newFlowService(t, store, sink)

	result := svc.ComputeView(context.Background(), ViewRequest{
		SessionID: "sess-1",
		Query:     url.Values{"state": {StateKnown}, "token": {"tok-abc"}},
	})

	assert.Equal(t, StateKnown, result.State)
	assert.Equal(t, leads.TokenMatched, result.TokenMatchStatus)
	assert.Equal(t, "Annika", result.Name)
	assert.Equal(t, "recExisting123", result.LeadRecordID)

	require.Len(t, sink.named(analytics.EventView), 1)
	unlocks := sink.named(analytics.EventKnownUnlockView)
	require.Len(t, unlocks, 1)
	assert.Equal(t, leads.TokenMatched, unlocks[0].Attributes[analytics.AttrTokenMatchStatus])
	assert.Equal(t, "tok-abc", unlocks[0].Attributes[analytics.AttrToken])
}

func TestComputeViewKnownSuppressedByEmailGate(t *testing.T) {
	sink := &fakeSink{}
	svc, _ := newFlowService(t, newFakeStore(), sink)

	result := svc.ComputeView(context.Background(), ViewRequest{
		SessionID:        "sess-1",
		Query:            url.Values{"state": {StateKnown}, "token": {"tok-abc"}},
		RequireEmailGate: true,
	})

	assert.Equal(t, StateGated, result.State)
	assert.Empty(t, sink.named(analytics.EventKnownUnlockView))
}

func TestComputeViewInvalidKnownLink(t *testing.T) {
	sink := &fakeSink{}
	svc, _ := newFlowService(t, newFakeStore(), sink)

	result := svc.ComputeView(context.Background(), ViewRequest{
		SessionID: "sess-1",
		Query:     url.Values{"state": {StateKnown}, "token": {"bad token!"}},
	})

	assert.Equal(t, StateGated, result.State)
	assert.True(t, result.InvalidKnownLink)
	assert.Empty(t, sink.named(analytics.EventKnownUnlockView))
}

func TestComputeViewKnownStoreFailureDowngradesMatchStatus(t *testing.T) {
	store := newFakeStore()
	store.findErr = errStoreDown
	sink := &fakeSink{}
	svc, _ := newFlowService(t, store, sink)

	result := svc.ComputeView(context.Background(), ViewRequest{
		SessionID: "sess-1",
		Query:     url.Values{"state": {StateKnown}, "token": {"tok-abc"}, "firstname": {"Anna"}},
	})

	assert.Equal(t, StateKnown, result.State, "the render survives a store outage")
	assert.Equal(t, leads.TokenUnknown, result.TokenMatchStatus)
	assert.Equal(t, "Anna", result.Name)

	unlocks := sink.named(analytics.EventKnownUnlockView)
	require.Len(t, unlocks, 1)
	assert.Equal(t, leads.TokenUnknown, unlocks[0].Attributes[analytics.AttrTokenMatchStatus])
}

func TestSubmitCachesSessionAndBuildsRedirect(t *testing.T) {
	sink := &fakeSink{}
	svc, sessions := newFlowService(t, newFakeStore(), sink)

	result, err := svc.Submit(context.Background(), SubmitRequest{
		SessionID:   "sess-1",
		PagePath:    "/lead-magnet",
		Email:       "anna@example.com",
		Name:        "Anna",
		UtmSource:   "linkedin",
		UtmCampaign: "spring",
	})
	require.NoError(t, err)

	assert.Equal(t, StateSubmitted, result.State)

	redirect, err := url.Parse(result.RedirectURL)
	require.NoError(t, err)
	assert.Equal(t, "/lead-magnet", redirect.Path)
	query := redirect.Query()
	assert.Equal(t, StateSubmitted, query.Get("state"))
	assert.Equal(t, "linkedin", query.Get("utm_source"))
	assert.Equal(t, "spring", query.Get("utm_campaign"))
	assert.Empty(t, query.Get("token"))

	payload, ok := sessions.Get("sess-1")
	require.True(t, ok)
	assert.Equal(t, "anna@example.com", payload.Email)
	assert.Equal(t, leads.SourceSocial, payload.LeadSource)

	submits := sink.named(analytics.EventFormSubmit)
	require.Len(t, submits, 1)
	assert.Equal(t, leads.SourceSocial, submits[0].Attributes[analytics.AttrLeadSource])
}

func TestSubmitPreservesToken(t *testing.T) {
	store := newFakeStore()
	store.byToken["tok-abc"] = leads.TokenLookup{RecordID: "recExisting123", TokenMatched: true}
	sink := &fakeSink{}
	svc, _ := newFlowService(t, store, sink)

	result, err := svc.Submit(context.Background(), SubmitRequest{
		SessionID: "sess-1",
		PagePath:  "/lead-magnet",
		Email:     "anna@example.com",
		Token:     "tok-abc",
	})
	require.NoError(t, err)

	assert.True(t, result.TokenMatched)
	redirect, err := url.Parse(result.RedirectURL)
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", redirect.Query().Get("token"))
}

func TestSubmitInvalidEmailEmitsNothing(t *testing.T) {
	sink := &fakeSink{}
	svc, sessions := newFlowService(t, newFakeStore(), sink)

	_, err := svc.Submit(context.Background(), SubmitRequest{
		SessionID: "sess-1",
		Email:     "nope",
	})
	assert.ErrorIs(t, err, ErrInvalidEmail)
	assert.Empty(t, sink.events)
	assert.Equal(t, 0, sessions.Len())
}

func TestRecordClick(t *testing.T) {
	sink := &fakeSink{}
	svc, _ := newFlowService(t, newFakeStore(), sink)

	name, err := svc.RecordClick(ClickRequest{SessionID: "sess-1", Kind: ClickDownload, State: StateSubmitted})
	require.NoError(t, err)
	assert.Equal(t, analytics.EventDownloadClick, name)

	name, err = svc.RecordClick(ClickRequest{SessionID: "sess-1", Kind: ClickSecondary})
	require.NoError(t, err)
	assert.Equal(t, analytics.EventSecondaryCtaClick, name)

	_, err = svc.RecordClick(ClickRequest{SessionID: "sess-1", Kind: "hover"})
	assert.Error(t, err)
}
