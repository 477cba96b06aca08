// Package database provides the event-log database connection, backed by a
// local SQLite file or a remote Turso database when configured.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/postpal/postpal-go/internal/infrastructure/observability/logging"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"

	"github.com/postpal/postpal-go/pkg/config"
)

// DB wraps the standard SQL database connection.
type DB struct {
	*sql.DB
	Driver string
}

// NewEventLogConnection opens the analytics event-log database. Turso wins
// when TURSO_DATABASE_URL and TURSO_AUTH_TOKEN are both set; otherwise a
// local SQLite file at EVENT_LOG_PATH is created on demand.
func NewEventLogConnection(logger *logging.ChanneledLogger) (*DB, error) {
	tursoURL := os.Getenv("TURSO_DATABASE_URL")
	tursoToken := os.Getenv("TURSO_AUTH_TOKEN")

	var conn *sql.DB
	var err error
	var driver string

	if tursoURL != "" && tursoToken != "" {
		driver = "libsql"
		connStr := tursoURL + "?authToken=" + tursoToken
		conn, err = sql.Open(driver, connStr)
		if err != nil {
			return nil, fmt.Errorf("turso connection failed: %w", err)
		}
	} else {
		driver = "sqlite3"
		dbDir := filepath.Dir(config.EventLogPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create event log directory: %w", err)
		}
		conn, err = sql.Open(driver, config.EventLogPath)
		if err != nil {
			return nil, fmt.Errorf("sqlite connection failed: %w", err)
		}
	}

	start := time.Now()
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("event log database ping failed: %w", err)
	}

	conn.SetMaxOpenConns(config.DBMaxOpenConns)
	conn.SetMaxIdleConns(config.DBMaxIdleConns)
	conn.SetConnMaxLifetime(time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute)
	conn.SetConnMaxIdleTime(time.Duration(config.DBConnMaxIdleMinutes) * time.Minute)

	logger.Database().Info("Event log database connection established",
		"driver", driver, "duration", time.Since(start))

	return &DB{DB: conn, Driver: driver}, nil
}
