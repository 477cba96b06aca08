package leads

import "context"

// Record is a raw record as returned by the external store.
type Record struct {
	ID          string
	CreatedTime string
	Fields      map[string]any
}

// TokenLookup is the normalized result of resolving a record, by token or
// otherwise. A zero TokenLookup means no match.
type TokenLookup struct {
	RecordID      string
	TokenMatched  bool
	FirstName     string
	DownloadCount int
	CreatedTime   string
}

// RecordStore is the contract against the external record store. Every write
// is a single remote call; callers must not assume partial success on error.
type RecordStore interface {
	// FindByToken resolves a token to at most one record. An unmatched token
	// is not an error.
	FindByToken(ctx context.Context, token string) (TokenLookup, error)

	// FindByRecordID fetches a record by id, nil when absent or malformed.
	FindByRecordID(ctx context.Context, recordID string) (*Record, error)

	// Create writes a new record with the given fields.
	Create(ctx context.Context, fields map[string]any) (TokenLookup, error)

	// Update patches an existing record.
	Update(ctx context.Context, recordID string, fields map[string]any) (TokenLookup, error)

	// IncrementDownload reads the current download count and writes count+1
	// plus fresh download/last-seen timestamps, merged with extra.
	IncrementDownload(ctx context.Context, recordID string, extra map[string]any) (TokenLookup, error)
}
