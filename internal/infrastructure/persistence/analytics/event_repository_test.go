package analytics

import (
	"database/sql"
	"log/slog"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainanalytics "github.com/postpal/postpal-go/internal/domain/analytics"
	"github.com/postpal/postpal-go/internal/infrastructure/observability/logging"
	"github.com/postpal/postpal-go/internal/infrastructure/persistence/database"
	"github.com/postpal/postpal-go/internal/infrastructure/security"
)

func newTestRepository(t *testing.T) *SQLEventRepository {
	t.Helper()

	conn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    false,
		OutputToConsole: false,
		DefaultLevel:    slog.LevelError,
	})
	require.NoError(t, err)

	repo := NewSQLEventRepository(&database.DB{DB: conn, Driver: "sqlite3"}, logger)
	require.NoError(t, repo.EnsureSchema())
	return repo
}

func storeEvent(t *testing.T, repo *SQLEventRepository, name string, attributes map[string]any) {
	t.Helper()
	require.NoError(t, repo.StoreEvent(&domainanalytics.Event{
		ID:         security.GenerateULID(),
		Name:       name,
		Attributes: attributes,
		CreatedAt:  time.Now().UTC(),
	}))
}

func TestCountEventsByName(t *testing.T) {
	repo := newTestRepository(t)

	storeEvent(t, repo, domainanalytics.EventView, map[string]any{domainanalytics.AttrState: "gated"})
	storeEvent(t, repo, domainanalytics.EventView, map[string]any{domainanalytics.AttrState: "known"})
	storeEvent(t, repo, domainanalytics.EventFormSubmit, map[string]any{})

	counts, err := repo.CountEventsByName(time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domainanalytics.EventView])
	assert.Equal(t, 1, counts[domainanalytics.EventFormSubmit])
	assert.Zero(t, counts[domainanalytics.EventDownloadClick])
}

func TestCountLeadSourcesBucketsMissingAsOrganic(t *testing.T) {
	repo := newTestRepository(t)

	storeEvent(t, repo, domainanalytics.EventFormSubmit, map[string]any{domainanalytics.AttrLeadSource: "outreach"})
	storeEvent(t, repo, domainanalytics.EventFormSubmit, map[string]any{domainanalytics.AttrLeadSource: "outreach"})
	storeEvent(t, repo, domainanalytics.EventFormSubmit, map[string]any{})
	// View events must not count toward submit attribution.
	storeEvent(t, repo, domainanalytics.EventView, map[string]any{domainanalytics.AttrLeadSource: "ad"})

	sources, err := repo.CountLeadSources(time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, sources["outreach"])
	assert.Equal(t, 1, sources["organic"])
	assert.Zero(t, sources["ad"])
}

func TestCountEventsByNameRespectsWindow(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.StoreEvent(&domainanalytics.Event{
		ID:        security.GenerateULID(),
		Name:      domainanalytics.EventView,
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	}))

	counts, err := repo.CountEventsByName(time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, counts[domainanalytics.EventView])
}
