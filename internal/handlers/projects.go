package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/GrandGaleTechnologies/docops-console/internal/middleware"
	"github.com/GrandGaleTechnologies/docops-console/internal/models"
	"github.com/GrandGaleTechnologies/docops-console/pkg/utils"
	"github.com/go-chi/chi/v5"
)

// ProjectReader and ProjectWriter split the project service surface
// the handler depends on.
type ProjectReader interface {
	List(ctx context.Context, token string, params models.ProjectListParams) (*models.Paginated[models.Project], error)
	Get(ctx context.Context, token string, id int64) (*models.Project, error)
}

type ProjectWriter interface {
	Create(ctx context.Context, token string, payload models.CreateProject) (*models.Project, error)
	Update(ctx context.Context, token string, id int64, payload models.UpdateProject) (*models.Project, error)
	UpdateStatus(ctx context.Context, token string, id int64, status models.ProjectStatus) (*models.Project, error)
	Delete(ctx context.Context, token string, id int64) error
}

// ProjectsHandler serves the /api/projects endpoints.
type ProjectsHandler struct {
	reader ProjectReader
	writer ProjectWriter
}

// NewProjectsHandler creates a projects handler.
func NewProjectsHandler(reader ProjectReader, writer ProjectWriter) *ProjectsHandler {
	return &ProjectsHandler{reader: reader, writer: writer}
}

// List returns a page of projects.
//
// GET /api/projects?query=&auto_sync=&page=&size=&order_by=
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	params := models.ProjectListParams{
		Query:   r.URL.Query().Get("query"),
		OrderBy: models.SortOrder(r.URL.Query().Get("order_by")),
	}
	if raw := r.URL.Query().Get("auto_sync"); raw != "" {
		autoSync, err := strconv.ParseBool(raw)
		if err != nil {
			utils.RespondWithError(w, r, http.StatusBadRequest, "auto_sync must be true or false")
			return
		}
		params.AutoSync = &autoSync
	}
	var ok bool
	if params.Page, ok = parsePositiveInt(w, r, "page"); !ok {
		return
	}
	if params.Size, ok = parsePositiveInt(w, r, "size"); !ok {
		return
	}

	page, err := h.reader.List(r.Context(), session.AccessToken, params)
	if err != nil {
		respondUpstreamError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, r, http.StatusOK, page)
}

// Get returns one project.
//
// GET /api/projects/{id}
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	project, err := h.reader.Get(r.Context(), session.AccessToken, id)
	if err != nil {
		respondUpstreamError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, r, http.StatusOK, project)
}

// Create registers a new project.
//
// POST /api/projects
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	var payload models.CreateProject
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.Name == "" {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Project name is required")
		return
	}

	project, err := h.writer.Create(r.Context(), session.AccessToken, payload)
	if err != nil {
		respondUpstreamError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, r, http.StatusCreated, project)
}

// Update applies a partial update to a project.
//
// PUT /api/projects/{id}
func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var payload models.UpdateProject
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	project, err := h.writer.Update(r.Context(), session.AccessToken, id, payload)
	if err != nil {
		respondUpstreamError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, r, http.StatusOK, project)
}

// UpdateStatus flips a project's lifecycle status.
//
// GET /api/projects/{id}/status?status=
func (h *ProjectsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	status := models.ProjectStatus(r.URL.Query().Get("status"))
	switch status {
	case models.ProjectActive, models.ProjectInactive, models.ProjectPending:
	default:
		utils.RespondWithError(w, r, http.StatusBadRequest, "status must be active, inactive or pending")
		return
	}

	project, err := h.writer.UpdateStatus(r.Context(), session.AccessToken, id, status)
	if err != nil {
		respondUpstreamError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, r, http.StatusOK, project)
}

// Delete removes a project.
//
// DELETE /api/projects/{id}
func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.writer.Delete(r.Context(), session.AccessToken, id); err != nil {
		respondUpstreamError(w, r, err)
		return
	}
	utils.RespondWithMessage(w, r, http.StatusOK, "Project deleted")
}

// parseIDParam reads a numeric chi URL parameter, responding 400 on
// garbage.
func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// parsePositiveInt reads an optional positive integer query parameter.
// Absent means zero, which the client layer treats as "not set".
func parsePositiveInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		utils.RespondWithError(w, r, http.StatusBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return value, true
}
