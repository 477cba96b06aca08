// Package analytics provides the SQL-backed persistence for lead-magnet
// analytics events.
//
// PURPOSE: store emitted events as they happen; metrics queries aggregate
// over this same table. Frequently queried attributes get their own columns.
package analytics

import (
	"encoding/json"
	"fmt"
	"time"

	domainanalytics "github.com/postpal/postpal-go/internal/domain/analytics"
	"github.com/postpal/postpal-go/internal/infrastructure/observability/logging"
	"github.com/postpal/postpal-go/internal/infrastructure/persistence/database"
	"github.com/postpal/postpal-go/pkg/config"
)

const createdAtLayout = "2006-01-02 15:04:05"

// SQLEventRepository handles event persistence and aggregation queries.
type SQLEventRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLEventRepository creates a new instance of the repository.
func NewSQLEventRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLEventRepository {
	return &SQLEventRepository{db: db, logger: logger}
}

// EnsureSchema creates the event-log table and indexes when missing.
func (r *SQLEventRepository) EnsureSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS lead_events (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			session_id TEXT,
			state TEXT,
			asset_id TEXT,
			lead_source TEXT,
			token_match_status TEXT,
			attributes TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lead_events_name ON lead_events(name)`,
		`CREATE INDEX IF NOT EXISTS idx_lead_events_created_at ON lead_events(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create event log schema for query [%s]: %w", stmt, err)
		}
	}
	return nil
}

// StoreEvent saves one analytics event.
func (r *SQLEventRepository) StoreEvent(event *domainanalytics.Event) error {
	attributes, err := json.Marshal(event.Attributes)
	if err != nil {
		return fmt.Errorf("failed to encode event attributes: %w", err)
	}

	const query = `
		INSERT INTO lead_events (id, name, session_id, state, asset_id, lead_source, token_match_status, attributes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	_, err = r.db.Exec(
		query,
		event.ID,
		event.Name,
		attrString(event.Attributes, domainanalytics.AttrSessionID),
		attrString(event.Attributes, domainanalytics.AttrState),
		attrString(event.Attributes, domainanalytics.AttrAssetID),
		attrString(event.Attributes, domainanalytics.AttrLeadSource),
		attrString(event.Attributes, domainanalytics.AttrTokenMatchStatus),
		string(attributes),
		event.CreatedAt.UTC().Format(createdAtLayout),
	)
	if err != nil {
		r.logger.Database().Error("Event insert failed",
			"error", err.Error(), "eventId", event.ID, "name", event.Name)
		return fmt.Errorf("failed to store analytics event: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Debug("Event insert completed",
		"eventId", event.ID, "name", event.Name, "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return nil
}

// CountEventsByName aggregates event counts per name since the given time.
func (r *SQLEventRepository) CountEventsByName(since time.Time) (map[string]int, error) {
	const query = `
		SELECT name, COUNT(*) FROM lead_events
		WHERE created_at >= ?
		GROUP BY name`

	return r.countGrouped(query, since)
}

// CountLeadSources aggregates view events per lead source since the given
// time. Events without a source are bucketed as organic.
func (r *SQLEventRepository) CountLeadSources(since time.Time) (map[string]int, error) {
	const query = `
		SELECT COALESCE(NULLIF(lead_source, ''), 'organic'), COUNT(*) FROM lead_events
		WHERE created_at >= ? AND name = ?
		GROUP BY 1`

	start := time.Now()
	rows, err := r.db.Query(query, since.UTC().Format(createdAtLayout), domainanalytics.EventFormSubmit)
	if err != nil {
		return nil, fmt.Errorf("failed to count lead sources: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan lead source row: %w", err)
		}
		counts[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lead source rows failed: %w", err)
	}

	if duration := time.Since(start); duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return counts, nil
}

func (r *SQLEventRepository) countGrouped(query string, since time.Time) (map[string]int, error) {
	start := time.Now()
	rows, err := r.db.Query(query, since.UTC().Format(createdAtLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event count row: %w", err)
		}
		counts[name] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("event count rows failed: %w", err)
	}

	if duration := time.Since(start); duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return counts, nil
}

func attrString(attributes map[string]any, key string) string {
	if value, ok := attributes[key].(string); ok {
		return value
	}
	return ""
}
