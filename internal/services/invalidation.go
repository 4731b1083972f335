package services

import (
	"context"

	"github.com/GrandGaleTechnologies/docops-console/pkg/cache"
	"github.com/rs/zerolog/log"
)

// Entity names a cached resource family for invalidation purposes.
type Entity string

// Cached entity families.
const (
	EntityProjects     Entity = "projects"
	EntityIntegrations Entity = "integrations"
	EntitySyncs        Entity = "syncs"
	EntityDashboard    Entity = "dashboard"
)

// Invalidator maps "this entity changed" events to the cache patterns
// that must be purged. The registry is the single place that knows
// which cached reads a mutation can stale: a project write also purges
// the dashboard aggregates, an integration write also purges project
// lists (integration counts appear there), and so on. Services report
// the entity that changed and never touch patterns directly.
type Invalidator struct {
	cache    *cache.Cache
	registry map[Entity][]string
}

// NewInvalidator creates an invalidator with the default registry.
func NewInvalidator(c *cache.Cache) *Invalidator {
	return &Invalidator{
		cache: c,
		registry: map[Entity][]string{
			EntityProjects: {
				cache.ProjectsListPattern(),
				cache.DashboardPattern(),
			},
			EntityIntegrations: {
				cache.IntegrationsPattern(),
				cache.ProjectsListPattern(),
				cache.DashboardPattern(),
			},
			EntitySyncs: {
				cache.SyncsPattern(),
				cache.DashboardPattern(),
			},
			EntityDashboard: {
				cache.DashboardPattern(),
			},
		},
	}
}

// Register adds extra patterns to purge when an entity changes.
func (i *Invalidator) Register(entity Entity, patterns ...string) {
	i.registry[entity] = append(i.registry[entity], patterns...)
}

// EntityChanged purges every pattern registered for the given
// entities. Purge failures are logged, not returned: the mutation that
// triggered the purge already succeeded upstream, and cache TTLs bound
// how long a missed purge can serve stale data.
func (i *Invalidator) EntityChanged(ctx context.Context, entities ...Entity) {
	for _, entity := range entities {
		for _, pattern := range i.registry[entity] {
			if err := i.cache.DeletePattern(ctx, pattern); err != nil {
				log.Warn().
					Err(err).
					Str("entity", string(entity)).
					Str("pattern", pattern).
					Msg("Cache invalidation failed")
			}
		}
	}
}

// PurgeAll empties the whole query cache. Called on logout so no
// cached read outlives the session that produced it.
func (i *Invalidator) PurgeAll(ctx context.Context) {
	if err := i.cache.DeletePattern(ctx, cache.QueryPattern()); err != nil {
		log.Warn().Err(err).Msg("Failed to purge query cache")
	}
}
