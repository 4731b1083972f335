package handlers

import (
	"context"
	"net/http"

	"github.com/GrandGaleTechnologies/docops-console/internal/middleware"
	"github.com/GrandGaleTechnologies/docops-console/internal/models"
	"github.com/GrandGaleTechnologies/docops-console/pkg/utils"
)

// DashboardReader is the slice of the dashboard service the handler
// uses.
type DashboardReader interface {
	GetStats(ctx context.Context, token string, period models.Period) (*models.DashboardStats, error)
	GetChart(ctx context.Context, token string, period models.Period) (*models.ChartData, error)
}

// DashboardHandler serves the aggregate stats and chart endpoints.
type DashboardHandler struct {
	dashboard DashboardReader
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(dashboard DashboardReader) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Stats returns the aggregate counters for a period. Defaults to
// "day" when no period is given, matching the dashboard's initial
// view.
//
// GET /api/dashboard/stats?period=
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	stats, err := h.dashboard.GetStats(r.Context(), session.AccessToken, period)
	if err != nil {
		respondUpstreamError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, r, http.StatusOK, stats)
}

// Chart returns the sync time series for a period. A "day" request is
// served with the week series; the period widening happens at the
// platform client, the handler accepts all four periods alike.
//
// GET /api/dashboard/chart?period=
func (h *DashboardHandler) Chart(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	chart, err := h.dashboard.GetChart(r.Context(), session.AccessToken, period)
	if err != nil {
		respondUpstreamError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, r, http.StatusOK, chart)
}

func parsePeriod(w http.ResponseWriter, r *http.Request) (models.Period, bool) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		return models.PeriodDay, true
	}
	period := models.Period(raw)
	if !period.Valid() {
		utils.RespondWithError(w, r, http.StatusBadRequest, "period must be day, week, month or year")
		return "", false
	}
	return period, true
}
