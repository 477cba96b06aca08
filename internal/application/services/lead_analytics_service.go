package services

import (
	"fmt"
	"time"

	domainanalytics "github.com/postpal/postpal-go/internal/domain/analytics"
	"github.com/postpal/postpal-go/internal/infrastructure/persistence/analytics"
)

// LeadMetrics is the aggregated funnel for the admin dashboard.
type LeadMetrics struct {
	Hours          int            `json:"hours"`
	Views          int            `json:"views"`
	Submits        int            `json:"submits"`
	Downloads      int            `json:"downloads"`
	KnownUnlocks   int            `json:"knownUnlocks"`
	SecondaryCtas  int            `json:"secondaryCtas"`
	ConversionRate float64        `json:"conversionRate"`
	LeadSources    map[string]int `json:"leadSources"`
}

// LeadAnalyticsService aggregates the event log into funnel metrics.
type LeadAnalyticsService struct {
	repo *analytics.SQLEventRepository
}

// NewLeadAnalyticsService creates the analytics aggregation service.
func NewLeadAnalyticsService(repo *analytics.SQLEventRepository) *LeadAnalyticsService {
	return &LeadAnalyticsService{repo: repo}
}

// ComputeLeadMetrics aggregates events over the trailing window.
func (s *LeadAnalyticsService) ComputeLeadMetrics(hours int) (*LeadMetrics, error) {
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	counts, err := s.repo.CountEventsByName(since)
	if err != nil {
		return nil, fmt.Errorf("failed to compute lead metrics: %w", err)
	}
	sources, err := s.repo.CountLeadSources(since)
	if err != nil {
		return nil, fmt.Errorf("failed to compute lead sources: %w", err)
	}

	metrics := &LeadMetrics{
		Hours:         hours,
		Views:         counts[domainanalytics.EventView],
		Submits:       counts[domainanalytics.EventFormSubmit],
		Downloads:     counts[domainanalytics.EventDownloadClick],
		KnownUnlocks:  counts[domainanalytics.EventKnownUnlockView],
		SecondaryCtas: counts[domainanalytics.EventSecondaryCtaClick],
		LeadSources:   sources,
	}
	if metrics.Views > 0 {
		metrics.ConversionRate = float64(metrics.Submits) / float64(metrics.Views)
	}
	return metrics, nil
}
