package analytics

import (
	"time"

	domainanalytics "github.com/postpal/postpal-go/internal/domain/analytics"
	"github.com/postpal/postpal-go/internal/infrastructure/observability/logging"
	"github.com/postpal/postpal-go/internal/infrastructure/security"
)

// SQLEventSink is the production analytics.EventSink: it assigns an id and
// timestamp and persists through the repository. Emission is best-effort;
// failures are logged and swallowed so tracking never degrades a request.
type SQLEventSink struct {
	repo   *SQLEventRepository
	logger *logging.ChanneledLogger
}

// NewSQLEventSink creates a sink writing to the event log.
func NewSQLEventSink(repo *SQLEventRepository, logger *logging.ChanneledLogger) *SQLEventSink {
	return &SQLEventSink{repo: repo, logger: logger}
}

// Emit records one event.
func (s *SQLEventSink) Emit(name string, attributes map[string]any) {
	event := &domainanalytics.Event{
		ID:         security.GenerateULID(),
		Name:       name,
		Attributes: attributes,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.StoreEvent(event); err != nil {
		s.logger.Analytics().Error("Failed to persist analytics event",
			"name", name, "error", err.Error())
		return
	}
	s.logger.Analytics().Debug("Analytics event emitted", "name", name, "eventId", event.ID)
}
