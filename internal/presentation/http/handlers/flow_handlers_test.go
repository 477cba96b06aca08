package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpal/postpal-go/internal/application/services"
	"github.com/postpal/postpal-go/internal/domain/analytics"
	"github.com/postpal/postpal-go/internal/domain/leads"
	"github.com/postpal/postpal-go/internal/infrastructure/caching/stores"
	"github.com/postpal/postpal-go/internal/infrastructure/observability/performance"
	"github.com/postpal/postpal-go/internal/presentation/http/middleware"
)

type captureSink struct {
	events []string
}

func (s *captureSink) Emit(name string, _ map[string]any) {
	s.events = append(s.events, name)
}

func newFlowRouter(t *testing.T, store leads.RecordStore) (*gin.Engine, *captureSink) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := newTestLogger(t)
	sink := &captureSink{}
	sessions := stores.NewSessionStore(time.Hour)
	capture := services.NewCaptureService(store, nil, logger)
	resolver := services.NewResolveService(store, logger)
	flowService := services.NewFlowService(capture, resolver, sessions, sink, logger)
	handlers := NewFlowHandlers(flowService, logger, performance.NewTracker(nil))

	r := gin.New()
	group := r.Group("/api/v1/flow")
	group.Use(middleware.NoStoreMiddleware())
	group.Use(middleware.SessionMiddleware())
	{
		group.POST("/view", handlers.PostView)
		group.POST("/submit", handlers.PostSubmit)
		group.POST("/event", handlers.PostEvent)
	}
	return r, sink
}

func TestPostViewMintsSessionID(t *testing.T) {
	r, sink := newFlowRouter(t, &stubStore{byToken: map[string]leads.TokenLookup{}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/flow/view", strings.NewReader(`{"page_path":"/lead-magnet","query":""}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.SessionHeader), "a fresh session id is echoed back")

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "gated", body["state"])

	assert.Equal(t, []string{analytics.EventView}, sink.events)
}

func TestPostViewEchoesExistingSessionID(t *testing.T) {
	r, _ := newFlowRouter(t, &stubStore{byToken: map[string]leads.TokenLookup{}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/flow/view", strings.NewReader(`{}`))
	req.Header.Set(middleware.SessionHeader, "sess-existing")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "sess-existing", w.Header().Get(middleware.SessionHeader))
}

func TestPostViewKnownState(t *testing.T) {
	store := &stubStore{byToken: map[string]leads.TokenLookup{
		"tok-abc": {RecordID: "recExisting123", TokenMatched: true, FirstName: "Annika"},
	}}
	r, sink := newFlowRouter(t, store)

	payload := `{"page_path":"/lead-magnet","query":"state=known&token=tok-abc"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/flow/view", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "known", body["state"])
	assert.Equal(t, "matched", body["tokenMatchStatus"])
	assert.Equal(t, "Annika", body["name"])

	assert.Equal(t, []string{analytics.EventView, analytics.EventKnownUnlockView}, sink.events)
}

func TestPostSubmitReturnsRedirect(t *testing.T) {
	r, sink := newFlowRouter(t, &stubStore{byToken: map[string]leads.TokenLookup{}})

	payload := `{"page_path":"/lead-magnet","email":"anna@example.com","utm_source":"linkedin"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/flow/submit", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Contains(t, body["redirectUrl"], "state=submitted")
	assert.Contains(t, body["redirectUrl"], "utm_source=linkedin")

	assert.Equal(t, []string{analytics.EventFormSubmit}, sink.events)
}

func TestPostEventUnknownKind(t *testing.T) {
	r, _ := newFlowRouter(t, &stubStore{byToken: map[string]leads.TokenLookup{}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/flow/event", strings.NewReader(`{"kind":"hover"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
