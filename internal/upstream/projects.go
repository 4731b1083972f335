package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/GrandGaleTechnologies/docops-console/internal/models"
)

// ListProjects fetches a page of projects. Zero-valued params are not
// serialized, so the platform's own defaults apply.
func (c *Client) ListProjects(ctx context.Context, token string, params models.ProjectListParams) (*models.Paginated[models.Project], error) {
	var page *models.Paginated[models.Project]
	err := c.get(ctx, withQuery("/projects", params.Values()), token, func(raw []byte) error {
		p, err := decodePaginated[models.Project](raw)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// GetProject fetches a single project by id.
func (c *Client) GetProject(ctx context.Context, token string, id int64) (*models.Project, error) {
	var project models.Project
	err := c.get(ctx, fmt.Sprintf("/projects/%d", id), token, func(raw []byte) error {
		return decodeMsg(raw, &project)
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateProject registers a new project on the platform.
func (c *Client) CreateProject(ctx context.Context, token string, payload models.CreateProject) (*models.Project, error) {
	raw, err := c.do(ctx, http.MethodPost, "/projects", token, payload)
	if err != nil {
		return nil, err
	}
	var project models.Project
	if err := decodeMsg(raw, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject applies a partial update. Fields left nil in the
// payload are omitted from the request and stay untouched upstream.
func (c *Client) UpdateProject(ctx context.Context, token string, id int64, payload models.UpdateProject) (*models.Project, error) {
	raw, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/projects/%d", id), token, payload)
	if err != nil {
		return nil, err
	}
	var project models.Project
	if err := decodeMsg(raw, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProjectStatus flips a project's lifecycle status. The platform
// models this as a GET with a status query parameter; preserved as-is.
func (c *Client) UpdateProjectStatus(ctx context.Context, token string, id int64, status models.ProjectStatus) (*models.Project, error) {
	q := url.Values{"status": []string{string(status)}}
	path := withQuery(fmt.Sprintf("/projects/%d/status", id), q)
	var project models.Project
	err := c.get(ctx, path, token, func(raw []byte) error {
		return decodeMsg(raw, &project)
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject removes a project and everything under it.
func (c *Client) DeleteProject(ctx context.Context, token string, id int64) error {
	raw, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/projects/%d", id), token, nil)
	if err != nil {
		return err
	}
	return decodeMsg(raw, nil)
}
