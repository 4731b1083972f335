package upstream

import (
	"context"
	"net/url"

	"github.com/GrandGaleTechnologies/docops-console/internal/models"
)

// Stats fetches aggregate dashboard numbers for the given period.
// All four periods are sent to the platform unchanged.
func (c *Client) Stats(ctx context.Context, token string, period models.Period) (*models.DashboardStats, error) {
	q := url.Values{"period": []string{string(period)}}
	var stats models.DashboardStats
	err := c.get(ctx, withQuery("/dashboard/stats", q), token, func(raw []byte) error {
		return decodeMsg(raw, &stats)
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Chart fetches time-series chart data. The chart endpoint does not
// accept a day granularity, so a requested day is widened to week
// before the call; the other periods pass through unchanged.
func (c *Client) Chart(ctx context.Context, token string, period models.Period) (*models.ChartData, error) {
	q := url.Values{"period": []string{string(period.ChartPeriod())}}
	var chart models.ChartData
	err := c.get(ctx, withQuery("/dashboard/chart", q), token, func(raw []byte) error {
		return decodeMsg(raw, &chart)
	})
	if err != nil {
		return nil, err
	}
	return &chart, nil
}
