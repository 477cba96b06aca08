// Package stores provides in-memory caches for per-session state.
package stores

import (
	"sync"
	"time"

	"github.com/postpal/postpal-go/internal/domain/leads"
)

type sessionEntry struct {
	payload   *leads.StoredPayload
	expiresAt time.Time
}

// SessionStore caches the last captured payload per browser session. It is a
// disposable read-through cache mirroring the browser's own session storage;
// the external record store stays authoritative.
type SessionStore struct {
	entries map[string]*sessionEntry
	ttl     time.Duration
	mu      sync.RWMutex
}

// NewSessionStore creates a session store with the given entry TTL.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		entries: make(map[string]*sessionEntry),
		ttl:     ttl,
	}
}

// Get returns the stored payload for a session, if present and fresh.
func (s *SessionStore) Get(sessionID string) (*leads.StoredPayload, bool) {
	if sessionID == "" {
		return nil, false
	}

	s.mu.RLock()
	entry, exists := s.entries[sessionID]
	s.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, sessionID)
		s.mu.Unlock()
		return nil, false
	}
	return entry.payload, true
}

// Set stores the payload for a session, refreshing its TTL.
func (s *SessionStore) Set(sessionID string, payload *leads.StoredPayload) {
	if sessionID == "" || payload == nil {
		return
	}

	s.mu.Lock()
	s.entries[sessionID] = &sessionEntry{
		payload:   payload,
		expiresAt: time.Now().Add(s.ttl),
	}
	s.mu.Unlock()
}

// Sweep evicts expired entries and reports how many were removed.
func (s *SessionStore) Sweep() int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for sessionID, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, sessionID)
			removed++
		}
	}
	return removed
}

// Len reports the current number of cached sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
