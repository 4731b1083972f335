package services

import (
	"context"
	"time"

	"github.com/GrandGaleTechnologies/docops-console/internal/models"
	"github.com/GrandGaleTechnologies/docops-console/pkg/cache"
	"github.com/rs/zerolog/log"
)

// SyncAPI is the slice of the platform client the sync service uses.
type SyncAPI interface {
	ListSyncs(ctx context.Context, token string, params models.SyncListParams) (*models.Paginated[models.Sync], error)
	GetSync(ctx context.Context, token string, id int64) (*models.Sync, error)
	TriggerSync(ctx context.Context, token string, id int64) (*models.Sync, error)
	DeleteSync(ctx context.Context, token string, id int64) error
}

// SyncService serves sync-job reads from the query cache. Sync state
// changes on the platform's own schedule, so the short TTL matters
// more here than anywhere else.
type SyncService struct {
	api   SyncAPI
	cache *cache.Cache
	inv   *Invalidator
	ttl   time.Duration
}

// NewSyncService creates a sync service.
func NewSyncService(api SyncAPI, c *cache.Cache, inv *Invalidator, ttl time.Duration) *SyncService {
	return &SyncService{api: api, cache: c, inv: inv, ttl: ttl}
}

// List returns a page of sync jobs, cached per parameter combination.
func (s *SyncService) List(ctx context.Context, token string, params models.SyncListParams) (*models.Paginated[models.Sync], error) {
	var page models.Paginated[models.Sync]
	key := cache.SyncsListKey(params.CacheKey())
	err := s.cache.GetOrLoad(ctx, key, s.ttl, &page, func() (interface{}, error) {
		return s.api.ListSyncs(ctx, token, params)
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Get returns one sync job, cached by id.
func (s *SyncService) Get(ctx context.Context, token string, id int64) (*models.Sync, error) {
	var sync models.Sync
	err := s.cache.GetOrLoad(ctx, cache.SyncKey(id), s.ttl, &sync, func() (interface{}, error) {
		return s.api.GetSync(ctx, token, id)
	})
	if err != nil {
		return nil, err
	}
	return &sync, nil
}

// Trigger asks the platform to rerun a sync job and purges sync and
// dashboard caches so the new run shows up immediately.
func (s *SyncService) Trigger(ctx context.Context, token string, id int64) (*models.Sync, error) {
	sync, err := s.api.TriggerSync(ctx, token, id)
	if err != nil {
		return nil, err
	}

	s.inv.EntityChanged(ctx, EntitySyncs)
	log.Info().Int64("sync_id", id).Msg("Sync triggered")
	return sync, nil
}

// Delete removes a sync job record.
func (s *SyncService) Delete(ctx context.Context, token string, id int64) error {
	if err := s.api.DeleteSync(ctx, token, id); err != nil {
		return err
	}

	s.inv.EntityChanged(ctx, EntitySyncs)
	log.Info().Int64("sync_id", id).Msg("Sync deleted")
	return nil
}
