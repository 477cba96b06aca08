// Package container wires infrastructure and application services together.
package container

import (
	"github.com/postpal/postpal-go/internal/application/services"
	"github.com/postpal/postpal-go/internal/domain/leads"
	"github.com/postpal/postpal-go/internal/infrastructure/airtable"
	"github.com/postpal/postpal-go/internal/infrastructure/caching/stores"
	"github.com/postpal/postpal-go/internal/infrastructure/email"
	"github.com/postpal/postpal-go/internal/infrastructure/observability/logging"
	"github.com/postpal/postpal-go/internal/infrastructure/observability/performance"
	persistenceanalytics "github.com/postpal/postpal-go/internal/infrastructure/persistence/analytics"
	"github.com/postpal/postpal-go/internal/infrastructure/persistence/database"
	"github.com/postpal/postpal-go/pkg/config"
)

// Container holds every long-lived dependency the HTTP layer needs.
type Container struct {
	Logger      *logging.ChanneledLogger
	PerfTracker *performance.Tracker

	EventLogDB *database.DB
	EventRepo  *persistenceanalytics.SQLEventRepository
	Sessions   *stores.SessionStore

	RecordStore leads.RecordStore

	CaptureService  *services.CaptureService
	DownloadService *services.DownloadService
	ResolveService  *services.ResolveService
	FlowService     *services.FlowService
	Analytics       *services.LeadAnalyticsService
	Auth            *services.AuthService
}

// New builds the dependency graph. The record-store config and event-log
// database are created by the caller so startup can fail fast on them.
func New(storeCfg airtable.Config, eventLogDB *database.DB, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *Container {
	recordStore := airtable.NewClient(storeCfg, logger)
	eventRepo := persistenceanalytics.NewSQLEventRepository(eventLogDB, logger)
	sink := persistenceanalytics.NewSQLEventSink(eventRepo, logger)
	sessions := stores.NewSessionStore(config.SessionTTL)

	notifier, err := email.NewService()
	if err != nil {
		logger.Email().Info("Lead notifications disabled", "reason", err.Error())
		notifier = nil
	}

	captureService := services.NewCaptureService(recordStore, notifier, logger)
	resolveService := services.NewResolveService(recordStore, logger)

	return &Container{
		Logger:      logger,
		PerfTracker: perfTracker,

		EventLogDB: eventLogDB,
		EventRepo:  eventRepo,
		Sessions:   sessions,

		RecordStore: recordStore,

		CaptureService:  captureService,
		DownloadService: services.NewDownloadService(recordStore, logger),
		ResolveService:  resolveService,
		FlowService:     services.NewFlowService(captureService, resolveService, sessions, sink, logger),
		Analytics:       services.NewLeadAnalyticsService(eventRepo),
		Auth:            services.NewAuthService(logger),
	}
}
