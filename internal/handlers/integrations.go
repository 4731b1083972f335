package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/GrandGaleTechnologies/docops-console/internal/middleware"
	"github.com/GrandGaleTechnologies/docops-console/internal/models"
	"github.com/GrandGaleTechnologies/docops-console/pkg/utils"
)

// IntegrationManager is the slice of the integration service the
// handler uses.
type IntegrationManager interface {
	ListForProject(ctx context.Context, token string, projectID int64) ([]models.Integration, error)
	Attach(ctx context.Context, token string, projectID int64, integrationType models.IntegrationType, config map[string]any) (*models.Integration, error)
	Detach(ctx context.Context, token string, id int64) error
}

// IntegrationsHandler serves the integration endpoints.
type IntegrationsHandler struct {
	integrations IntegrationManager
}

// NewIntegrationsHandler creates an integrations handler.
func NewIntegrationsHandler(integrations IntegrationManager) *IntegrationsHandler {
	return &IntegrationsHandler{integrations: integrations}
}

// ListForProject returns the integrations attached to a project.
//
// GET /api/projects/{id}/integrations
func (h *IntegrationsHandler) ListForProject(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	projectID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	integrations, err := h.integrations.ListForProject(r.Context(), session.AccessToken, projectID)
	if err != nil {
		respondUpstreamError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, r, http.StatusOK, map[string]any{"integrations": integrations})
}

// Attach adds an integration to a project. The integration type rides
// in the query string, the provider configuration in the body; an
// empty body means an empty configuration.
//
// POST /api/projects/{id}/integrations?integration=
func (h *IntegrationsHandler) Attach(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	projectID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	integrationType := models.IntegrationType(r.URL.Query().Get("integration"))
	if !integrationType.Valid() {
		utils.RespondWithError(w, r, http.StatusBadRequest, "integration must be acc or drone_deploy")
		return
	}

	config := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil && err != io.EOF {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	integration, err := h.integrations.Attach(r.Context(), session.AccessToken, projectID, integrationType, config)
	if err != nil {
		respondUpstreamError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, r, http.StatusCreated, integration)
}

// Detach removes an integration.
//
// DELETE /api/integrations/{id}
func (h *IntegrationsHandler) Detach(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.integrations.Detach(r.Context(), session.AccessToken, id); err != nil {
		respondUpstreamError(w, r, err)
		return
	}
	utils.RespondWithMessage(w, r, http.StatusOK, "Integration removed")
}
