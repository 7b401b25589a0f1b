package activities_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bkovacev/runsight/internal/activities"
	"github.com/bkovacev/runsight/internal/strava"
	"github.com/bkovacev/runsight/internal/telemetry/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

// TestMain will run goleak after all tests have been run in the package
// to detect any goroutine leaks
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type refreshServiceMocks struct {
	tokens *MocktokenProvider
	api    *MockstravaApi
	store  *MockcacheStore
	mirror *MockremoteMirror
}

func newTestRefreshService(t *testing.T, ttl time.Duration) (*activities.RefreshService, refreshServiceMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mocks := refreshServiceMocks{
		tokens: NewMocktokenProvider(ctrl),
		api:    NewMockstravaApi(ctrl),
		store:  NewMockcacheStore(ctrl),
		mirror: NewMockremoteMirror(ctrl),
	}
	service := activities.NewRefreshService(
		mocks.tokens, mocks.api, mocks.store, mocks.mirror,
		metrics.NewTestManager(),
		ttl, 30, 3,
	)
	return service, mocks
}

func TestRefreshService_Refresh_FullCycle(t *testing.T) {
	service, mocks := newTestRefreshService(t, 30*time.Minute)
	ctx := context.Background()

	existing := activities.Dataset{Activities: []activities.Activity{
		{ID: 1, Name: "Run A", Distance: 5000, ElapsedTime: 1500},
	}}
	fetched := []strava.Activity{
		{ID: 1, Name: "Run A", Distance: 5000, ElapsedTime: 1500},
		{ID: 2, Name: "Run B", Distance: 10000, ElapsedTime: 3200},
	}

	mocks.store.EXPECT().Load(gomock.Any()).Return(existing, nil)
	mocks.tokens.EXPECT().RefreshAccessToken(gomock.Any()).Return("test-token", nil)
	mocks.api.EXPECT().
		ListActivities(gomock.Any(), "test-token", 30, 1).
		Return(fetched, nil)
	mocks.api.EXPECT().
		EnrichWithDetail(gomock.Any(), fetched, "test-token", 3, map[int64]struct{}{1: {}}).
		Return(fetched[1:], nil)

	var savedDataset activities.Dataset
	mocks.store.EXPECT().
		Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ds activities.Dataset) ([]byte, error) {
			savedDataset = ds
			return []byte("encoded-cache"), nil
		})
	mocks.mirror.EXPECT().Push(gomock.Any(), []byte("encoded-cache")).Return(nil)

	result, err := service.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.FetchedNew)
	assert.False(t, result.RateLimited)
	assert.False(t, result.SkippedTTL)

	require.Equal(t, 2, savedDataset.Len())
	assert.Equal(t, "Run A", savedDataset.Activities[0].Name)
	assert.Equal(t, "Run B", savedDataset.Activities[1].Name)

	dataset, err := service.Dataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dataset.Len())
}

func TestRefreshService_Refresh_TTLGate(t *testing.T) {
	service, mocks := newTestRefreshService(t, time.Hour)
	ctx := context.Background()

	mocks.store.EXPECT().Load(gomock.Any()).Return(activities.Dataset{}, nil)
	mocks.tokens.EXPECT().RefreshAccessToken(gomock.Any()).Return("test-token", nil)
	mocks.api.EXPECT().
		ListActivities(gomock.Any(), "test-token", 30, 1).
		Return([]strava.Activity{{ID: 7, Name: "Run"}}, nil)
	mocks.api.EXPECT().
		EnrichWithDetail(gomock.Any(), gomock.Any(), "test-token", 3, gomock.Any()).
		Return([]strava.Activity{{ID: 7, Name: "Run"}}, nil)
	mocks.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return([]byte("x"), nil)
	mocks.mirror.EXPECT().Push(gomock.Any(), gomock.Any()).Return(nil)

	first, err := service.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.FetchedNew)

	// within the TTL window: no token refresh, no fetch, no persist
	second, err := service.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, second.SkippedTTL)
	assert.Equal(t, 1, second.Total)
	assert.Zero(t, second.FetchedNew)
}

func TestRefreshService_Refresh_RateLimited(t *testing.T) {
	service, mocks := newTestRefreshService(t, 0)
	ctx := context.Background()

	existing := activities.Dataset{Activities: []activities.Activity{{ID: 1, Name: "Run A"}}}
	mocks.store.EXPECT().Load(gomock.Any()).Return(existing, nil)
	mocks.tokens.EXPECT().RefreshAccessToken(gomock.Any()).Return("test-token", nil)
	mocks.api.EXPECT().
		ListActivities(gomock.Any(), "test-token", 30, 1).
		Return(nil, strava.ErrRateLimited)

	// the cycle completes, dataset untouched, nothing persisted
	result, err := service.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, result.RateLimited)
	assert.Equal(t, 1, result.Total)
	assert.Zero(t, result.FetchedNew)
}

func TestRefreshService_Refresh_NothingNew(t *testing.T) {
	service, mocks := newTestRefreshService(t, 0)
	ctx := context.Background()

	existing := activities.Dataset{Activities: []activities.Activity{{ID: 1, Name: "Run A"}}}
	fetched := []strava.Activity{{ID: 1, Name: "Run A"}}

	mocks.store.EXPECT().Load(gomock.Any()).Return(existing, nil)
	mocks.tokens.EXPECT().RefreshAccessToken(gomock.Any()).Return("test-token", nil)
	mocks.api.EXPECT().
		ListActivities(gomock.Any(), "test-token", 30, 1).
		Return(fetched, nil)
	mocks.api.EXPECT().
		EnrichWithDetail(gomock.Any(), fetched, "test-token", 3, map[int64]struct{}{1: {}}).
		Return([]strava.Activity{}, nil)

	// no Save or Push expected
	result, err := service.Refresh(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.FetchedNew)
	assert.Equal(t, 1, result.Total)
}

func TestRefreshService_Refresh_AuthError(t *testing.T) {
	service, mocks := newTestRefreshService(t, 0)
	ctx := context.Background()

	mocks.store.EXPECT().Load(gomock.Any()).Return(activities.Dataset{}, nil)
	mocks.tokens.EXPECT().
		RefreshAccessToken(gomock.Any()).
		Return("", &strava.AuthError{StatusCode: http.StatusBadRequest, Body: "bad refresh token"})

	_, err := service.Refresh(ctx)
	var authErr *strava.AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusBadRequest, authErr.StatusCode)
}

func TestRefreshService_Refresh_UpstreamErrorLeavesCacheUntouched(t *testing.T) {
	service, mocks := newTestRefreshService(t, 0)
	ctx := context.Background()

	existing := activities.Dataset{Activities: []activities.Activity{{ID: 1, Name: "Run A"}}}
	mocks.store.EXPECT().Load(gomock.Any()).Return(existing, nil)
	mocks.tokens.EXPECT().RefreshAccessToken(gomock.Any()).Return("test-token", nil)
	mocks.api.EXPECT().
		ListActivities(gomock.Any(), "test-token", 30, 1).
		Return(nil, &strava.UpstreamError{StatusCode: http.StatusInternalServerError})

	_, err := service.Refresh(ctx)
	var upstreamErr *strava.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))

	dataset, err := service.Dataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, dataset.Len())
	assert.Equal(t, "Run A", dataset.Activities[0].Name)
}

func TestRefreshService_Refresh_PersistErrorSkipsMirror(t *testing.T) {
	service, mocks := newTestRefreshService(t, 0)
	ctx := context.Background()

	fetched := []strava.Activity{{ID: 5, Name: "Run"}}
	mocks.store.EXPECT().Load(gomock.Any()).Return(activities.Dataset{}, nil)
	mocks.tokens.EXPECT().RefreshAccessToken(gomock.Any()).Return("test-token", nil)
	mocks.api.EXPECT().
		ListActivities(gomock.Any(), "test-token", 30, 1).
		Return(fetched, nil)
	mocks.api.EXPECT().
		EnrichWithDetail(gomock.Any(), fetched, "test-token", 3, gomock.Any()).
		Return(fetched, nil)
	mocks.store.EXPECT().
		Save(gomock.Any(), gomock.Any()).
		Return(nil, &activities.PersistError{Path: "/tmp/cache.parquet", Err: errors.New("disk full")})

	// no mirror push expected after a failed local write
	_, err := service.Refresh(ctx)
	var persistErr *activities.PersistError
	require.True(t, errors.As(err, &persistErr))
}

func TestRefreshService_Refresh_PersistFailureRetriedNextCycle(t *testing.T) {
	service, mocks := newTestRefreshService(t, 0)
	ctx := context.Background()

	fetched := []strava.Activity{{ID: 5, Name: "Run"}}
	mocks.store.EXPECT().Load(gomock.Any()).Return(activities.Dataset{}, nil)
	mocks.tokens.EXPECT().RefreshAccessToken(gomock.Any()).Return("test-token", nil).Times(3)
	mocks.api.EXPECT().
		ListActivities(gomock.Any(), "test-token", 30, 1).
		Return(fetched, nil).
		Times(3)
	mocks.api.EXPECT().
		EnrichWithDetail(gomock.Any(), fetched, "test-token", 3, gomock.Any()).
		DoAndReturn(func(
			_ context.Context, batch []strava.Activity, _ string, _ int, existingIDs map[int64]struct{},
		) ([]strava.Activity, error) {
			filtered := make([]strava.Activity, 0, len(batch))
			for _, act := range batch {
				if _, ok := existingIDs[act.ID]; !ok {
					filtered = append(filtered, act)
				}
			}
			return filtered, nil
		}).
		Times(3)

	gomock.InOrder(
		mocks.store.EXPECT().
			Save(gomock.Any(), gomock.Any()).
			Return(nil, &activities.PersistError{Path: "/tmp/cache.parquet", Err: errors.New("disk full")}),
		mocks.store.EXPECT().
			Save(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, ds activities.Dataset) ([]byte, error) {
				require.Equal(t, 1, ds.Len())
				assert.Equal(t, int64(5), ds.Activities[0].ID)
				return []byte("x"), nil
			}),
	)
	mocks.mirror.EXPECT().Push(gomock.Any(), []byte("x")).Return(nil)

	_, err := service.Refresh(ctx)
	var persistErr *activities.PersistError
	require.True(t, errors.As(err, &persistErr))

	// the record is already merged in memory, so this cycle fetches nothing
	// new, but the failed write must be retried (and mirrored) anyway
	second, err := service.Refresh(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.FetchedNew)
	assert.Equal(t, 1, second.Total)

	// once persisted, an unchanged cycle goes back to skipping the write
	third, err := service.Refresh(ctx)
	require.NoError(t, err)
	assert.Zero(t, third.FetchedNew)
	assert.Equal(t, 1, third.Total)
}

func TestRefreshService_Refresh_RemoteSyncFailureIsSoft(t *testing.T) {
	service, mocks := newTestRefreshService(t, 0)
	ctx := context.Background()

	fetched := []strava.Activity{{ID: 5, Name: "Run"}}
	mocks.store.EXPECT().Load(gomock.Any()).Return(activities.Dataset{}, nil)
	mocks.tokens.EXPECT().RefreshAccessToken(gomock.Any()).Return("test-token", nil)
	mocks.api.EXPECT().
		ListActivities(gomock.Any(), "test-token", 30, 1).
		Return(fetched, nil)
	mocks.api.EXPECT().
		EnrichWithDetail(gomock.Any(), fetched, "test-token", 3, gomock.Any()).
		Return(fetched, nil)
	mocks.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return([]byte("x"), nil)
	mocks.mirror.EXPECT().Push(gomock.Any(), []byte("x")).Return(errors.New("github unreachable"))

	result, err := service.Refresh(ctx)

	var remoteSyncErr *activities.RemoteSyncError
	require.True(t, errors.As(err, &remoteSyncErr))

	// the result is still valid, the cycle counts as done
	assert.Equal(t, 1, result.FetchedNew)
	assert.Equal(t, 1, result.Total)

	dataset, err := service.Dataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, dataset.Len())
}

func TestRefreshService_Refresh_Idempotent(t *testing.T) {
	service, mocks := newTestRefreshService(t, 0)
	ctx := context.Background()

	fetched := []strava.Activity{
		{ID: 1, Name: "Run A"},
		{ID: 2, Name: "Run B"},
	}

	mocks.store.EXPECT().Load(gomock.Any()).Return(activities.Dataset{}, nil)
	mocks.tokens.EXPECT().RefreshAccessToken(gomock.Any()).Return("test-token", nil).Times(2)
	mocks.api.EXPECT().
		ListActivities(gomock.Any(), "test-token", 30, 1).
		Return(fetched, nil).
		Times(2)
	mocks.api.EXPECT().
		EnrichWithDetail(gomock.Any(), fetched, "test-token", 3, gomock.Any()).
		DoAndReturn(func(
			_ context.Context, batch []strava.Activity, _ string, _ int, existingIDs map[int64]struct{},
		) ([]strava.Activity, error) {
			filtered := make([]strava.Activity, 0, len(batch))
			for _, act := range batch {
				if _, ok := existingIDs[act.ID]; !ok {
					filtered = append(filtered, act)
				}
			}
			return filtered, nil
		}).
		Times(2)
	mocks.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return([]byte("x"), nil)
	mocks.mirror.EXPECT().Push(gomock.Any(), gomock.Any()).Return(nil)

	first, err := service.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, first.FetchedNew)

	// same upstream batch again: nothing merged, nothing persisted
	second, err := service.Refresh(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.FetchedNew)
	assert.Equal(t, 2, second.Total)
}
