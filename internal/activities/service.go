package activities

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bkovacev/runsight/internal/strava"
	"github.com/bkovacev/runsight/internal/telemetry/metrics"
	"github.com/bkovacev/runsight/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=activities_test

type tokenProvider interface {
	RefreshAccessToken(ctx context.Context) (string, error)
}

type stravaApi interface {
	ListActivities(ctx context.Context, accessToken string, perPage, page int) ([]strava.Activity, error)
	EnrichWithDetail(
		ctx context.Context,
		activities []strava.Activity,
		accessToken string,
		maxDetailed int,
		existingIDs map[int64]struct{},
	) ([]strava.Activity, error)
}

type cacheStore interface {
	Load(ctx context.Context) (Dataset, error)
	Save(ctx context.Context, dataset Dataset) ([]byte, error)
}

type remoteMirror interface {
	Push(ctx context.Context, content []byte) error
}

// RefreshResult describes what a single refresh cycle did.
type RefreshResult struct {
	Total       int  `json:"total"`
	FetchedNew  int  `json:"fetched_new"`
	RateLimited bool `json:"rate_limited"`
	SkippedTTL  bool `json:"skipped_ttl"`
}

// RefreshService runs the fetch-merge-persist cycle and holds the merged
// dataset in memory for the presentation layer. A TTL gate makes repeated
// refresh calls within the window cheap no-ops.
type RefreshService struct {
	mu        sync.Mutex
	dataset   Dataset
	loaded    bool
	dirty     bool
	lastFetch time.Time

	tokens      tokenProvider
	api         stravaApi
	store       cacheStore
	mirror      remoteMirror
	metrics     *metrics.Manager
	ttl         time.Duration
	perPage     int
	maxDetailed int

	now func() time.Time
}

func NewRefreshService(
	tokens tokenProvider,
	api stravaApi,
	store cacheStore,
	mirror remoteMirror,
	metricsManager *metrics.Manager,
	ttl time.Duration,
	perPage int,
	maxDetailed int,
) *RefreshService {
	if mirror == nil {
		log.Warnln("refresh service: remote mirror disabled, local cache only")
	}
	return &RefreshService{
		tokens:      tokens,
		api:         api,
		store:       store,
		mirror:      mirror,
		metrics:     metricsManager,
		ttl:         ttl,
		perPage:     perPage,
		maxDetailed: maxDetailed,
		now:         time.Now,
	}
}

// Dataset returns the current in-memory dataset, loading the local cache on
// first use.
func (s *RefreshService) Dataset(ctx context.Context) (Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return Dataset{}, err
	}
	return s.dataset, nil
}

// Refresh runs one fetch-merge-persist cycle. Within the TTL window it
// returns the in-memory dataset without touching the network. A rate-limited
// list call completes the cycle with zero new records. A remote mirror
// failure after a successful local save is returned as a *RemoteSyncError
// alongside a valid result, the caller decides how loudly to report it.
func (s *RefreshService) Refresh(ctx context.Context) (_ RefreshResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "refreshService.refresh")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	startedAt := s.now()
	defer func() {
		s.metrics.HistRefreshDuration.Observe(s.now().Sub(startedAt).Seconds())
	}()

	if err := s.ensureLoaded(ctx); err != nil {
		return RefreshResult{}, err
	}

	if !s.lastFetch.IsZero() && startedAt.Sub(s.lastFetch) < s.ttl {
		log.Debugf("refresh skipped, last fetch %s ago", startedAt.Sub(s.lastFetch))
		span.SetAttributes(attribute.Bool("skipped_ttl", true))
		return RefreshResult{Total: s.dataset.Len(), SkippedTTL: true}, nil
	}

	s.metrics.CounterRefreshCycles.Inc()

	accessToken, err := s.tokens.RefreshAccessToken(ctx)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("refresh access token: %w", err)
	}

	batch, err := s.api.ListActivities(ctx, accessToken, s.perPage, 1)
	if errors.Is(err, strava.ErrRateLimited) {
		log.Warnln("refresh: list activities rate limited, no new data this cycle")
		s.metrics.CounterRateLimitedFetches.Inc()
		s.lastFetch = startedAt
		return RefreshResult{Total: s.dataset.Len(), RateLimited: true}, nil
	}
	if err != nil {
		return RefreshResult{}, fmt.Errorf("list activities: %w", err)
	}

	enriched, err := s.api.EnrichWithDetail(ctx, batch, accessToken, s.maxDetailed, s.dataset.IDSet())
	if err != nil {
		return RefreshResult{}, fmt.Errorf("enrich activities: %w", err)
	}

	merged := Merge(s.dataset, fromStrava(enriched))
	fetchedNew := merged.Len() - s.dataset.Len()
	s.dataset = merged
	s.lastFetch = startedAt

	s.metrics.CounterActivitiesMerged.Add(float64(fetchedNew))
	s.metrics.GaugeCachedActivities.Set(float64(merged.Len()))
	span.SetAttributes(attribute.Int("fetched_new", fetchedNew))

	result := RefreshResult{Total: merged.Len(), FetchedNew: fetchedNew}
	if fetchedNew == 0 && !s.dirty {
		log.Debugln("refresh: nothing new fetched, skipping persist")
		return result, nil
	}

	encoded, err := s.store.Save(ctx, merged)
	if err != nil {
		// local write failed, do not push a dataset we cannot re-read;
		// the merged records stay served from memory and the dirty flag
		// forces a save on the next cycle even if nothing new arrives
		s.dirty = true
		return RefreshResult{}, err
	}
	s.dirty = false

	if s.mirror == nil {
		return result, nil
	}
	if err := s.mirror.Push(ctx, encoded); err != nil {
		s.metrics.CounterRemoteSyncFailures.Inc()
		log.Errorf("refresh: remote mirror push failed: %s", err)
		return result, &RemoteSyncError{Err: err}
	}

	return result, nil
}

func (s *RefreshService) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	dataset, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load activity cache: %w", err)
	}
	s.dataset = dataset
	s.loaded = true
	s.metrics.GaugeCachedActivities.Set(float64(dataset.Len()))
	log.Debugf("activity cache loaded, %d records", dataset.Len())
	return nil
}

// fromStrava maps the wire records to domain records. Stream slices stay
// non-nil so the parquet list columns round-trip the same for "empty" and
// "not enriched".
func fromStrava(wire []strava.Activity) []Activity {
	converted := make([]Activity, 0, len(wire))
	for _, w := range wire {
		converted = append(converted, Activity{
			ID:               w.ID,
			Name:             w.Name,
			Distance:         w.Distance,
			ElapsedTime:      w.ElapsedTime,
			StartDateLocal:   w.StartDateLocal,
			Type:             w.Type,
			AverageHeartrate: w.AverageHeartrate,
			MaxHeartrate:     w.MaxHeartrate,
			Description:      w.Description,
			TimeStream:       emptyIfNil(w.TimeStream),
			Heartrate:        emptyIfNil(w.Heartrate),
			DistanceStream:   emptyIfNil(w.DistanceStream),
			Velocity:         emptyIfNil(w.Velocity),
		})
	}
	return converted
}

func emptyIfNil(s []float64) []float64 {
	if s == nil {
		return []float64{}
	}
	return s
}
