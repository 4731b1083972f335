package services

import (
	"context"
	"time"

	"github.com/GrandGaleTechnologies/docops-console/internal/models"
	"github.com/GrandGaleTechnologies/docops-console/pkg/cache"
	"github.com/rs/zerolog/log"
)

// ProjectAPI is the slice of the platform client the project service
// uses.
type ProjectAPI interface {
	ListProjects(ctx context.Context, token string, params models.ProjectListParams) (*models.Paginated[models.Project], error)
	GetProject(ctx context.Context, token string, id int64) (*models.Project, error)
	CreateProject(ctx context.Context, token string, payload models.CreateProject) (*models.Project, error)
	UpdateProject(ctx context.Context, token string, id int64, payload models.UpdateProject) (*models.Project, error)
	UpdateProjectStatus(ctx context.Context, token string, id int64, status models.ProjectStatus) (*models.Project, error)
	DeleteProject(ctx context.Context, token string, id int64) error
}

// ProjectService serves project reads from the query cache and routes
// writes to the platform, invalidating affected cache entries after
// every successful write. Reads share in-flight upstream calls, so a
// burst of identical list requests costs one platform round trip.
type ProjectService struct {
	api   ProjectAPI
	cache *cache.Cache
	inv   *Invalidator
	ttl   time.Duration
}

// NewProjectService creates a project service. ttl is how long cached
// reads stay fresh.
func NewProjectService(api ProjectAPI, c *cache.Cache, inv *Invalidator, ttl time.Duration) *ProjectService {
	return &ProjectService{api: api, cache: c, inv: inv, ttl: ttl}
}

// List returns a page of projects, cached per parameter combination.
func (s *ProjectService) List(ctx context.Context, token string, params models.ProjectListParams) (*models.Paginated[models.Project], error) {
	var page models.Paginated[models.Project]
	key := cache.ProjectsListKey(params.CacheKey())
	err := s.cache.GetOrLoad(ctx, key, s.ttl, &page, func() (interface{}, error) {
		return s.api.ListProjects(ctx, token, params)
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Get returns one project, cached by id.
func (s *ProjectService) Get(ctx context.Context, token string, id int64) (*models.Project, error) {
	var project models.Project
	err := s.cache.GetOrLoad(ctx, cache.ProjectKey(id), s.ttl, &project, func() (interface{}, error) {
		return s.api.GetProject(ctx, token, id)
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Create registers a new project and purges project list caches.
func (s *ProjectService) Create(ctx context.Context, token string, payload models.CreateProject) (*models.Project, error) {
	project, err := s.api.CreateProject(ctx, token, payload)
	if err != nil {
		return nil, err
	}

	s.inv.EntityChanged(ctx, EntityProjects)
	log.Info().Int64("project_id", project.ID).Str("name", project.Name).Msg("Project created")
	return project, nil
}

// Update applies a partial update and purges both the item entry and
// the list caches.
func (s *ProjectService) Update(ctx context.Context, token string, id int64, payload models.UpdateProject) (*models.Project, error) {
	project, err := s.api.UpdateProject(ctx, token, id, payload)
	if err != nil {
		return nil, err
	}

	s.dropItem(ctx, id)
	s.inv.EntityChanged(ctx, EntityProjects)
	return project, nil
}

// UpdateStatus flips a project's lifecycle status.
func (s *ProjectService) UpdateStatus(ctx context.Context, token string, id int64, status models.ProjectStatus) (*models.Project, error) {
	project, err := s.api.UpdateProjectStatus(ctx, token, id, status)
	if err != nil {
		return nil, err
	}

	s.dropItem(ctx, id)
	s.inv.EntityChanged(ctx, EntityProjects)
	return project, nil
}

// Delete removes a project. Its integrations and syncs go with it
// upstream, so those caches are purged too.
func (s *ProjectService) Delete(ctx context.Context, token string, id int64) error {
	if err := s.api.DeleteProject(ctx, token, id); err != nil {
		return err
	}

	s.dropItem(ctx, id)
	s.inv.EntityChanged(ctx, EntityProjects, EntityIntegrations, EntitySyncs)
	log.Info().Int64("project_id", id).Msg("Project deleted")
	return nil
}

func (s *ProjectService) dropItem(ctx context.Context, id int64) {
	if err := s.cache.Delete(ctx, cache.ProjectKey(id)); err != nil {
		log.Warn().Err(err).Int64("project_id", id).Msg("Failed to drop cached project")
	}
}
