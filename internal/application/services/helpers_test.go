package services

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/postpal/postpal-go/internal/domain/leads"
	"github.com/postpal/postpal-go/internal/infrastructure/observability/logging"
)

func newTestLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    false,
		OutputToConsole: false,
		DefaultLevel:    slog.LevelError,
	})
	require.NoError(t, err)
	return logger
}

type storeWrite struct {
	RecordID string
	Fields   map[string]any
}

// fakeStore is an in-memory leads.RecordStore that records every write.
type fakeStore struct {
	byToken     map[string]leads.TokenLookup
	findErr     error
	createErr   error
	updateErr   error
	created     []storeWrite
	updated     []storeWrite
	incremented []storeWrite
	nextID      string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byToken: make(map[string]leads.TokenLookup),
		nextID:  "recNewLead1234",
	}
}

func (f *fakeStore) FindByToken(_ context.Context, token string) (leads.TokenLookup, error) {
	if f.findErr != nil {
		return leads.TokenLookup{}, f.findErr
	}
	return f.byToken[token], nil
}

func (f *fakeStore) FindByRecordID(_ context.Context, recordID string) (*leads.Record, error) {
	for _, lookup := range f.byToken {
		if lookup.RecordID == recordID {
			return &leads.Record{ID: recordID, Fields: map[string]any{}}, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Create(_ context.Context, fields map[string]any) (leads.TokenLookup, error) {
	if f.createErr != nil {
		return leads.TokenLookup{}, f.createErr
	}
	f.created = append(f.created, storeWrite{RecordID: f.nextID, Fields: fields})
	return leads.TokenLookup{RecordID: f.nextID}, nil
}

func (f *fakeStore) Update(_ context.Context, recordID string, fields map[string]any) (leads.TokenLookup, error) {
	if f.updateErr != nil {
		return leads.TokenLookup{}, f.updateErr
	}
	f.updated = append(f.updated, storeWrite{RecordID: recordID, Fields: fields})
	return leads.TokenLookup{RecordID: recordID, TokenMatched: true}, nil
}

func (f *fakeStore) IncrementDownload(_ context.Context, recordID string, extra map[string]any) (leads.TokenLookup, error) {
	if f.updateErr != nil {
		return leads.TokenLookup{}, f.updateErr
	}
	if !f.hasRecord(recordID) {
		return leads.TokenLookup{}, fmt.Errorf("record not found: %s", recordID)
	}
	f.incremented = append(f.incremented, storeWrite{RecordID: recordID, Fields: extra})
	return leads.TokenLookup{RecordID: recordID, TokenMatched: true, DownloadCount: 1}, nil
}

func (f *fakeStore) hasRecord(recordID string) bool {
	for _, lookup := range f.byToken {
		if lookup.RecordID == recordID {
			return true
		}
	}
	return false
}

var _ leads.RecordStore = (*fakeStore)(nil)

type emittedEvent struct {
	Name       string
	Attributes map[string]any
}

type fakeSink struct {
	events []emittedEvent
}

func (f *fakeSink) Emit(name string, attributes map[string]any) {
	f.events = append(f.events, emittedEvent{Name: name, Attributes: attributes})
}

func (f *fakeSink) named(name string) []emittedEvent {
	var out []emittedEvent
	for _, event := range f.events {
		if event.Name == name {
			out = append(out, event)
		}
	}
	return out
}

var errStoreDown = fmt.Errorf("store unavailable")
