package performance

import (
	"fmt"
	"sync"
	"time"
)

// Tracker retains recent performance markers and aggregates basic stats.
type Tracker struct {
	markers map[string]*Marker
	order   []string
	mu      sync.RWMutex
	started time.Time
	config  *TrackerConfig
}

// TrackerConfig contains configuration options for the performance tracker
type TrackerConfig struct {
	MaxMarkers int `json:"maxMarkers"` // Maximum number of markers to retain
}

// DefaultTrackerConfig returns a sensible default configuration
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		MaxMarkers: 10000,
	}
}

// NewTracker creates a new performance tracker with the given configuration
func NewTracker(config *TrackerConfig) *Tracker {
	if config == nil {
		config = DefaultTrackerConfig()
	}
	return &Tracker{
		markers: make(map[string]*Marker),
		started: time.Now(),
		config:  config,
	}
}

// StartOperation creates and tracks a new performance marker for an operation
func (t *Tracker) StartOperation(operation string) *Marker {
	marker := &Marker{
		Operation: operation,
		StartTime: time.Now(),
		Metadata:  make(map[string]any),
		Success:   true,
	}

	markerID := fmt.Sprintf("%s_%d", operation, time.Now().UnixNano())

	t.mu.Lock()
	t.markers[markerID] = marker
	t.order = append(t.order, markerID)
	if len(t.order) > t.config.MaxMarkers {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.markers, oldest)
	}
	t.mu.Unlock()

	return marker
}

// Uptime reports how long the tracker (and so the process) has been running.
func (t *Tracker) Uptime() time.Duration {
	return time.Since(t.started)
}

// OperationStats summarizes completed markers per operation.
type OperationStats struct {
	Operation     string        `json:"operation"`
	Count         int           `json:"count"`
	Failures      int           `json:"failures"`
	TotalDuration time.Duration `json:"totalDuration"`
	MaxDuration   time.Duration `json:"maxDuration"`
}

// Stats aggregates completed markers grouped by operation name.
func (t *Tracker) Stats() map[string]*OperationStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := make(map[string]*OperationStats)
	for _, marker := range t.markers {
		if !marker.Completed {
			continue
		}
		s, ok := stats[marker.Operation]
		if !ok {
			s = &OperationStats{Operation: marker.Operation}
			stats[marker.Operation] = s
		}
		s.Count++
		if !marker.Success {
			s.Failures++
		}
		s.TotalDuration += marker.Duration
		if marker.Duration > s.MaxDuration {
			s.MaxDuration = marker.Duration
		}
	}
	return stats
}
