// Package airtable implements the external record-store client for lead
// records.
package airtable

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"sync"
)

// Environment variable names for the record-store connection.
const (
	EnvAPIToken   = "AIRTABLE_API_TOKEN"
	EnvBaseID     = "AIRTABLE_BASE_ID"
	EnvLeadsTable = "AIRTABLE_LEADS_TABLE"
)

// DefaultBaseURL is the Airtable REST API root.
const DefaultBaseURL = "https://api.airtable.com/v0"

var baseIDPattern = regexp.MustCompile(`^app[0-9A-Za-z]+$`)

var warnTokenPrefixOnce sync.Once

// Config holds the record-store connection settings.
type Config struct {
	BaseURL   string
	APIToken  string
	BaseID    string
	TableName string
}

// LoadConfig reads the record-store configuration from the environment and
// fails fast with the full list of missing variable names.
func LoadConfig() (Config, error) {
	apiToken := strings.TrimSpace(os.Getenv(EnvAPIToken))
	baseID := strings.TrimSpace(os.Getenv(EnvBaseID))
	tableName := strings.TrimSpace(os.Getenv(EnvLeadsTable))

	var missing []string
	if apiToken == "" {
		missing = append(missing, EnvAPIToken)
	}
	if baseID == "" {
		missing = append(missing, EnvBaseID)
	}
	if tableName == "" {
		missing = append(missing, EnvLeadsTable)
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf(
			"airtable config is incomplete. Required: %s, %s, %s. Missing: %s",
			EnvAPIToken, EnvBaseID, EnvLeadsTable, strings.Join(missing, ", "),
		)
	}

	if strings.Contains(baseID, "/") {
		return Config{}, fmt.Errorf("%s must contain only the base id (app...), no path segments", EnvBaseID)
	}
	if !baseIDPattern.MatchString(baseID) {
		return Config{}, fmt.Errorf("%s must match ^app[0-9A-Za-z]+$", EnvBaseID)
	}
	if strings.Contains(tableName, "/") {
		return Config{}, fmt.Errorf("%s must be a table name, not a path or id pair", EnvLeadsTable)
	}

	if !strings.HasPrefix(apiToken, "pat") {
		warnTokenPrefixOnce.Do(func() {
			log.Printf("WARNING: %s does not start with \"pat\". Verify token format and permissions.", EnvAPIToken)
		})
	}

	return Config{
		BaseURL:   DefaultBaseURL,
		APIToken:  apiToken,
		BaseID:    baseID,
		TableName: tableName,
	}, nil
}
