package services

import (
	"context"
	"testing"
	"time"

	"github.com/GrandGaleTechnologies/docops-console/internal/models"
	"github.com/GrandGaleTechnologies/docops-console/internal/testutil"
	"github.com/GrandGaleTechnologies/docops-console/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSyncAPI counts upstream calls per operation.
type fakeSyncAPI struct {
	listCalls    int
	getCalls     int
	triggerCalls int
	syncPage     *models.Paginated[models.Sync]
	sync         *models.Sync
	err          error
}

func (f *fakeSyncAPI) ListSyncs(ctx context.Context, token string, params models.SyncListParams) (*models.Paginated[models.Sync], error) {
	f.listCalls++
	return f.syncPage, f.err
}

func (f *fakeSyncAPI) GetSync(ctx context.Context, token string, id int64) (*models.Sync, error) {
	f.getCalls++
	return f.sync, f.err
}

func (f *fakeSyncAPI) TriggerSync(ctx context.Context, token string, id int64) (*models.Sync, error) {
	f.triggerCalls++
	return f.sync, f.err
}

func (f *fakeSyncAPI) DeleteSync(ctx context.Context, token string, id int64) error {
	return f.err
}

func setupSyncService(t *testing.T, api *fakeSyncAPI) (*SyncService, *cache.Cache) {
	t.Helper()

	mr, cleanup := testutil.SetupMiniRedis(t)
	t.Cleanup(cleanup)

	c := cache.New(testutil.NewTestRedisClient(t, mr), true)
	inv := NewInvalidator(c)
	return NewSyncService(api, c, inv, 30*time.Second), c
}

func TestSyncList(t *testing.T) {
	ctx := context.Background()

	t.Run("second identical read is served from cache", func(t *testing.T) {
		api := &fakeSyncAPI{syncPage: testutil.TestPage([]models.Sync{*testutil.TestSync()})}
		svc, _ := setupSyncService(t, api)

		params := models.SyncListParams{Page: 1, Size: 10}
		first, err := svc.List(ctx, "tok", params)
		require.NoError(t, err)
		second, err := svc.List(ctx, "tok", params)
		require.NoError(t, err)

		assert.Equal(t, 1, api.listCalls)
		assert.Equal(t, first.Data, second.Data)
	})

	t.Run("filtered reads get their own cache entries", func(t *testing.T) {
		api := &fakeSyncAPI{syncPage: testutil.TestPage([]models.Sync{*testutil.TestSync()})}
		svc, _ := setupSyncService(t, api)

		_, err := svc.List(ctx, "tok", models.SyncListParams{Page: 1})
		require.NoError(t, err)
		_, err = svc.List(ctx, "tok", models.SyncListParams{Page: 1, Status: models.SyncFailed})
		require.NoError(t, err)

		assert.Equal(t, 2, api.listCalls)
	})
}

func TestSyncTriggerInvalidatesCaches(t *testing.T) {
	ctx := context.Background()
	record := testutil.TestSync()
	api := &fakeSyncAPI{
		sync:     record,
		syncPage: testutil.TestPage([]models.Sync{*record}),
	}
	svc, _ := setupSyncService(t, api)

	_, err := svc.List(ctx, "tok", models.SyncListParams{Page: 1})
	require.NoError(t, err)
	_, err = svc.Get(ctx, "tok", record.ID)
	require.NoError(t, err)

	_, err = svc.Trigger(ctx, "tok", record.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, api.triggerCalls)

	// Both the list and the item were purged, so each read goes back
	// upstream.
	_, err = svc.List(ctx, "tok", models.SyncListParams{Page: 1})
	require.NoError(t, err)
	_, err = svc.Get(ctx, "tok", record.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, api.listCalls)
	assert.Equal(t, 2, api.getCalls)
}

func TestSyncDeleteFailureLeavesCache(t *testing.T) {
	ctx := context.Background()
	record := testutil.TestSync()
	api := &fakeSyncAPI{
		sync:     record,
		syncPage: testutil.TestPage([]models.Sync{*record}),
	}
	svc, _ := setupSyncService(t, api)

	_, err := svc.Get(ctx, "tok", record.ID)
	require.NoError(t, err)

	api.err = assert.AnError
	require.Error(t, svc.Delete(ctx, "tok", record.ID))
	api.err = nil

	_, err = svc.Get(ctx, "tok", record.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, api.getCalls)
}
