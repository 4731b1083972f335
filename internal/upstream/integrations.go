package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/GrandGaleTechnologies/docops-console/internal/models"
)

// ListProjectIntegrations fetches every integration attached to a
// project.
func (c *Client) ListProjectIntegrations(ctx context.Context, token string, projectID int64) ([]models.Integration, error) {
	var integrations []models.Integration
	err := c.get(ctx, fmt.Sprintf("/integrations/project/%d", projectID), token, func(raw []byte) error {
		return decodeMsg(raw, &integrations)
	})
	if err != nil {
		return nil, err
	}
	return integrations, nil
}

// CreateProjectIntegration attaches an integration of the given type
// to a project. The type travels as a query parameter, the provider
// config as the body.
func (c *Client) CreateProjectIntegration(ctx context.Context, token string, projectID int64, integrationType models.IntegrationType, config map[string]any) (*models.Integration, error) {
	q := url.Values{"integration": []string{string(integrationType)}}
	path := withQuery(fmt.Sprintf("/integrations/project/%d/integrate", projectID), q)
	raw, err := c.do(ctx, http.MethodPost, path, token, config)
	if err != nil {
		return nil, err
	}
	var integration models.Integration
	if err := decodeMsg(raw, &integration); err != nil {
		return nil, err
	}
	return &integration, nil
}

// DeleteIntegration detaches an integration from its project.
func (c *Client) DeleteIntegration(ctx context.Context, token string, id int64) error {
	raw, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/integrations/%d", id), token, nil)
	if err != nil {
		return err
	}
	return decodeMsg(raw, nil)
}
