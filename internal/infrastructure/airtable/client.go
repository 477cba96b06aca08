package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/postpal/postpal-go/internal/domain/leads"
	"github.com/postpal/postpal-go/internal/infrastructure/observability/logging"
	"github.com/postpal/postpal-go/pkg/config"
)

// maxErrorBodyBytes caps how much of a failed response body travels in an
// error, logs included.
const maxErrorBodyBytes = 400

// RequestError is a non-2xx response from the record store.
type RequestError struct {
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("airtable request failed (%d): %s", e.StatusCode, e.Body)
}

// Client is the Airtable-backed implementation of leads.RecordStore.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *logging.ChanneledLogger
}

// NewClient creates a record-store client against the configured base/table.
func NewClient(cfg Config, logger *logging.ChanneledLogger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: config.StoreRequestTimeout},
		logger:     logger,
	}
}

type wireRecord struct {
	ID          string         `json:"id,omitempty"`
	CreatedTime string         `json:"createdTime,omitempty"`
	Fields      map[string]any `json:"fields"`
}

type listResponse struct {
	Records []wireRecord `json:"records"`
}

type writeRequest struct {
	Records []wireRecord `json:"records"`
}

// tableURL joins base URL, base id, and the escaped table name with an
// optional trailing path.
func (c *Client) tableURL(path string) string {
	return fmt.Sprintf("%s/%s/%s%s", c.cfg.BaseURL, c.cfg.BaseID, url.PathEscape(c.cfg.TableName), path)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode airtable payload: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.tableURL(path), reader)
	if err != nil {
		return fmt.Errorf("failed to build airtable request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Store().Error("Record store request failed", "method", method, "path", path, "error", err.Error())
		return fmt.Errorf("airtable request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		reqErr := &RequestError{StatusCode: resp.StatusCode, Body: string(raw)}
		c.logger.Store().Error("Record store returned non-success status",
			"method", method, "path", path, "status", resp.StatusCode, "body", reqErr.Body)
		return reqErr
	}

	c.logger.Store().Debug("Record store request completed",
		"method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode airtable response: %w", err)
	}
	return nil
}

// escapeFormulaString escapes a value for interpolation into a
// filterByFormula expression.
func escapeFormulaString(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `'`, `\'`)
	escaped = strings.ReplaceAll(escaped, "\r", " ")
	escaped = strings.ReplaceAll(escaped, "\n", " ")
	return escaped
}

func toLookup(rec *wireRecord) leads.TokenLookup {
	if rec == nil {
		return leads.TokenLookup{}
	}

	firstName := ""
	if raw, ok := rec.Fields[leads.FieldFirstName].(string); ok {
		firstName = leads.NormalizeText(raw, leads.MaxNameLength)
	}

	return leads.TokenLookup{
		RecordID:      rec.ID,
		TokenMatched:  true,
		FirstName:     firstName,
		DownloadCount: leads.NormalizeDownloadCount(rec.Fields[leads.FieldDownloadCount]),
		CreatedTime:   rec.CreatedTime,
	}
}

// FindByToken resolves a token to at most one lead record.
func (c *Client) FindByToken(ctx context.Context, token string) (leads.TokenLookup, error) {
	normalized := leads.NormalizeToken(token)
	if normalized == "" {
		return leads.TokenLookup{}, nil
	}

	formula := fmt.Sprintf("{%s}='%s'", leads.FieldToken, escapeFormulaString(normalized))
	params := url.Values{}
	params.Set("maxRecords", "1")
	params.Set("filterByFormula", formula)

	var payload listResponse
	if err := c.do(ctx, http.MethodGet, "?"+params.Encode(), nil, &payload); err != nil {
		return leads.TokenLookup{}, err
	}

	if len(payload.Records) == 0 {
		return leads.TokenLookup{}, nil
	}
	return toLookup(&payload.Records[0]), nil
}

// FindByRecordID fetches a record by id; nil for malformed ids or any fetch
// failure, matching the tolerant read the download path relies on.
func (c *Client) FindByRecordID(ctx context.Context, recordID string) (*leads.Record, error) {
	normalized := leads.NormalizeRecordID(recordID)
	if normalized == "" {
		return nil, nil
	}

	var rec wireRecord
	if err := c.do(ctx, http.MethodGet, "/"+normalized, nil, &rec); err != nil {
		c.logger.Store().Debug("Record fetch by id failed", "recordId", normalized, "error", err.Error())
		return nil, nil
	}

	return &leads.Record{ID: rec.ID, CreatedTime: rec.CreatedTime, Fields: rec.Fields}, nil
}

// Create writes a new lead record.
func (c *Client) Create(ctx context.Context, fields map[string]any) (leads.TokenLookup, error) {
	body := writeRequest{Records: []wireRecord{{Fields: definedFields(fields)}}}

	var payload listResponse
	if err := c.do(ctx, http.MethodPost, "", body, &payload); err != nil {
		return leads.TokenLookup{}, err
	}
	if len(payload.Records) == 0 {
		return leads.TokenLookup{}, nil
	}
	return toLookup(&payload.Records[0]), nil
}

// Update patches an existing lead record.
func (c *Client) Update(ctx context.Context, recordID string, fields map[string]any) (leads.TokenLookup, error) {
	normalized := leads.NormalizeRecordID(recordID)
	if normalized == "" {
		return leads.TokenLookup{}, fmt.Errorf("invalid record id for update: %q", recordID)
	}

	body := writeRequest{Records: []wireRecord{{ID: normalized, Fields: definedFields(fields)}}}

	var payload listResponse
	if err := c.do(ctx, http.MethodPatch, "", body, &payload); err != nil {
		return leads.TokenLookup{}, err
	}
	if len(payload.Records) == 0 {
		return leads.TokenLookup{}, nil
	}
	return toLookup(&payload.Records[0]), nil
}

// IncrementDownload reads the current download count and writes count+1 with
// fresh download and last-seen timestamps, merged with extra. The download
// count never decreases; each tracked download adds exactly 1.
func (c *Client) IncrementDownload(ctx context.Context, recordID string, extra map[string]any) (leads.TokenLookup, error) {
	record, err := c.FindByRecordID(ctx, recordID)
	if err != nil {
		return leads.TokenLookup{}, err
	}
	if record == nil {
		return leads.TokenLookup{}, fmt.Errorf("record not found for download increment: %q", recordID)
	}

	currentCount := leads.NormalizeDownloadCount(record.Fields[leads.FieldDownloadCount])
	now := leads.NowISO()

	fields := map[string]any{
		leads.FieldDownloadCount: currentCount + 1,
		leads.FieldTsDownloaded:  now,
		leads.FieldLastSeenAt:    now,
	}
	for key, value := range extra {
		fields[key] = value
	}

	return c.Update(ctx, record.ID, fields)
}

// definedFields drops nil values so absent fields are omitted from writes
// instead of clobbering store data with nulls.
func definedFields(fields map[string]any) map[string]any {
	cleaned := make(map[string]any, len(fields))
	for key, value := range fields {
		if value == nil {
			continue
		}
		cleaned[key] = value
	}
	return cleaned
}
