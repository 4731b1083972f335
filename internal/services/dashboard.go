package services

import (
	"context"
	"fmt"
	"time"

	"github.com/GrandGaleTechnologies/docops-console/internal/models"
	"github.com/GrandGaleTechnologies/docops-console/pkg/cache"
)

// DashboardAPI is the slice of the platform client the dashboard
// service uses.
type DashboardAPI interface {
	Stats(ctx context.Context, token string, period models.Period) (*models.DashboardStats, error)
	Chart(ctx context.Context, token string, period models.Period) (*models.ChartData, error)
}

// DashboardService serves the aggregate stats and chart series from
// the query cache. Aggregates are expensive upstream and change
// slowly, so they get a longer TTL than resource lists.
type DashboardService struct {
	api   DashboardAPI
	cache *cache.Cache
	ttl   time.Duration
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(api DashboardAPI, c *cache.Cache, ttl time.Duration) *DashboardService {
	return &DashboardService{api: api, cache: c, ttl: ttl}
}

// GetStats returns the aggregate counters for a period, cached per
// period. All four periods are valid here.
func (s *DashboardService) GetStats(ctx context.Context, token string, period models.Period) (*models.DashboardStats, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("unknown period %q", period)
	}

	var stats models.DashboardStats
	key := cache.DashboardStatsKey(string(period))
	err := s.cache.GetOrLoad(ctx, key, s.ttl, &stats, func() (interface{}, error) {
		return s.api.Stats(ctx, token, period)
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetChart returns the sync time series for a period. The cache key
// uses the remapped chart period, so a "day" request and a "week"
// request share one entry and one upstream call.
func (s *DashboardService) GetChart(ctx context.Context, token string, period models.Period) (*models.ChartData, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("unknown period %q", period)
	}

	var chart models.ChartData
	key := cache.DashboardChartKey(string(period.ChartPeriod()))
	err := s.cache.GetOrLoad(ctx, key, s.ttl, &chart, func() (interface{}, error) {
		return s.api.Chart(ctx, token, period)
	})
	if err != nil {
		return nil, err
	}
	return &chart, nil
}
