package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/GrandGaleTechnologies/docops-console/internal/middleware"
	"github.com/GrandGaleTechnologies/docops-console/internal/models"
	"github.com/GrandGaleTechnologies/docops-console/pkg/utils"
)

// SyncManager is the slice of the sync service the handler uses.
type SyncManager interface {
	List(ctx context.Context, token string, params models.SyncListParams) (*models.Paginated[models.Sync], error)
	Get(ctx context.Context, token string, id int64) (*models.Sync, error)
	Trigger(ctx context.Context, token string, id int64) (*models.Sync, error)
	Delete(ctx context.Context, token string, id int64) error
}

// SyncsHandler serves the /api/syncs endpoints.
type SyncsHandler struct {
	syncs SyncManager
}

// NewSyncsHandler creates a syncs handler.
func NewSyncsHandler(syncs SyncManager) *SyncsHandler {
	return &SyncsHandler{syncs: syncs}
}

// List returns a page of sync jobs.
//
// GET /api/syncs?q=&status=&integration=&synced=&page=&size=&order_by=
func (h *SyncsHandler) List(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	params := models.SyncListParams{
		Q:           r.URL.Query().Get("q"),
		Integration: r.URL.Query().Get("integration"),
		OrderBy:     models.SortOrder(r.URL.Query().Get("order_by")),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.SyncStatus(raw)
		switch status {
		case models.SyncPending, models.SyncInProgress, models.SyncSuccess, models.SyncFailed:
			params.Status = status
		default:
			utils.RespondWithError(w, r, http.StatusBadRequest, "Unknown sync status")
			return
		}
	}
	if raw := r.URL.Query().Get("synced"); raw != "" {
		synced, err := strconv.ParseBool(raw)
		if err != nil {
			utils.RespondWithError(w, r, http.StatusBadRequest, "synced must be true or false")
			return
		}
		params.Synced = &synced
	}
	var ok bool
	if params.Page, ok = parsePositiveInt(w, r, "page"); !ok {
		return
	}
	if params.Size, ok = parsePositiveInt(w, r, "size"); !ok {
		return
	}

	page, err := h.syncs.List(r.Context(), session.AccessToken, params)
	if err != nil {
		respondUpstreamError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, r, http.StatusOK, page)
}

// Get returns one sync job.
//
// GET /api/syncs/{id}
func (h *SyncsHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	sync, err := h.syncs.Get(r.Context(), session.AccessToken, id)
	if err != nil {
		respondUpstreamError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, r, http.StatusOK, sync)
}

// Trigger reruns a sync job.
//
// POST /api/syncs/{id}/trigger
func (h *SyncsHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	sync, err := h.syncs.Trigger(r.Context(), session.AccessToken, id)
	if err != nil {
		respondUpstreamError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, r, http.StatusOK, sync)
}

// Delete removes a sync job record.
//
// DELETE /api/syncs/{id}
func (h *SyncsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.syncs.Delete(r.Context(), session.AccessToken, id); err != nil {
		respondUpstreamError(w, r, err)
		return
	}
	utils.RespondWithMessage(w, r, http.StatusOK, "Sync deleted")
}
