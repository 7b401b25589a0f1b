package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bkovacev/runsight/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// example API call
// https://www.strava.com/api/v3/athlete/activities?per_page=30&page=1

const (
	oneHour           = 60 * 60
	detailCacheExpire = oneHour * 24 // detail payloads never change once fetched
)

type Api struct {
	cache      *freecache.Cache
	baseURL    string // https://www.strava.com/api/v3
	httpClient *http.Client
}

func NewApi(baseURL string, httpClient *http.Client) *Api {
	megabyte := 1024 * 1024
	cacheSize := 20 * megabyte

	return &Api{
		baseURL:    baseURL,
		cache:      freecache.NewCache(cacheSize),
		httpClient: httpClient,
	}
}

// ListActivities fetches one page of recent activities. A 429 from the
// upstream yields (nil, ErrRateLimited) so the caller can complete the cycle
// with no new data instead of failing it.
func (a *Api) ListActivities(ctx context.Context, accessToken string, perPage, page int) (_ []Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "stravaApi.listActivities")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("per_page", perPage))
	span.SetAttributes(attribute.Int("page", page))

	listURL := fmt.Sprintf("%s/athlete/activities?per_page=%d&page=%d", a.baseURL, perPage, page)
	respBytes, err := a.get(ctx, listURL, accessToken)
	if err != nil {
		return nil, err
	}

	var activities []Activity
	if err := json.Unmarshal(respBytes, &activities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal activities list response bytes: %w", err)
	}

	log.Debugf("strava: got %d activities", len(activities))

	return activities, nil
}

// EnrichWithDetail fetches the description and the raw streams for up to
// maxDetailed activities that are not present in existingIDs yet. Activities
// over the budget are kept with empty detail fields. A 429 on any detail or
// streams call stops the enrichment early for the whole batch, the partially
// enriched batch is still returned with a nil error.
func (a *Api) EnrichWithDetail(
	ctx context.Context,
	activities []Activity,
	accessToken string,
	maxDetailed int,
	existingIDs map[int64]struct{},
) (_ []Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "stravaApi.enrichWithDetail")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("max_detailed", maxDetailed))

	enriched := make([]Activity, 0, len(activities))
	detailed := 0
	for i := range activities {
		act := activities[i]
		if _, ok := existingIDs[act.ID]; ok {
			// already cached, not worth a single detail call
			continue
		}

		if detailed < maxDetailed {
			description, detailErr := a.getDescription(ctx, accessToken, act.ID)
			if errors.Is(detailErr, ErrRateLimited) {
				log.Warnf("strava: rate limited on detail fetch for activity %d, stopping enrichment", act.ID)
				enriched = append(enriched, act)
				enriched = append(enriched, activities[i+1:]...)
				return filterExisting(enriched, existingIDs), nil
			}
			if detailErr != nil {
				return nil, fmt.Errorf("get description for activity %d: %w", act.ID, detailErr)
			}
			act.Description = description

			streams, streamsErr := a.getStreams(ctx, accessToken, act.ID)
			if errors.Is(streamsErr, ErrRateLimited) {
				log.Warnf("strava: rate limited on streams fetch for activity %d, stopping enrichment", act.ID)
				enriched = append(enriched, act)
				enriched = append(enriched, activities[i+1:]...)
				return filterExisting(enriched, existingIDs), nil
			}
			if streamsErr != nil {
				return nil, fmt.Errorf("get streams for activity %d: %w", act.ID, streamsErr)
			}

			act.TimeStream = streams.Time.Data
			act.Heartrate = streams.Heartrate.Data
			act.DistanceStream = streams.Distance.Data
			act.Velocity = streams.VelocitySmooth.Data
			detailed++
		}

		enriched = append(enriched, act)
	}

	log.Debugf("strava: enriched %d of %d new activities with detail", detailed, len(enriched))

	return enriched, nil
}

func (a *Api) getDescription(ctx context.Context, accessToken string, activityID int64) (string, error) {
	cacheKey := fmt.Sprintf("detail::%d", activityID)
	if detailBytes, err := a.cache.Get([]byte(cacheKey)); err == nil {
		var detail activityDetailResponse
		if err = json.Unmarshal(detailBytes, &detail); err == nil {
			log.Tracef("found detail for activity %d in cache", activityID)
			return detail.Description, nil
		}
		log.Errorf("failed to unmarshal cached detail for activity %d: %s", activityID, err)
	}

	detailURL := fmt.Sprintf("%s/activities/%d", a.baseURL, activityID)
	respBytes, err := a.get(ctx, detailURL, accessToken)
	if err != nil {
		return "", err
	}

	var detail activityDetailResponse
	if err := json.Unmarshal(respBytes, &detail); err != nil {
		return "", fmt.Errorf("failed to unmarshal activity detail response bytes: %w", err)
	}

	if err := a.cache.Set([]byte(cacheKey), respBytes, detailCacheExpire); err != nil {
		log.Errorf("failed to write detail cache for activity %d: %s", activityID, err)
	}

	return detail.Description, nil
}

func (a *Api) getStreams(ctx context.Context, accessToken string, activityID int64) (*streamsResponse, error) {
	cacheKey := fmt.Sprintf("streams::%d", activityID)
	if streamsBytes, err := a.cache.Get([]byte(cacheKey)); err == nil {
		streams := &streamsResponse{}
		if err = json.Unmarshal(streamsBytes, streams); err == nil {
			log.Tracef("found streams for activity %d in cache", activityID)
			return streams, nil
		}
		log.Errorf("failed to unmarshal cached streams for activity %d: %s", activityID, err)
	}

	streamsURL := fmt.Sprintf(
		"%s/activities/%d/streams?keys=heartrate,time,distance,velocity_smooth&key_by_type=true",
		a.baseURL, activityID,
	)
	respBytes, err := a.get(ctx, streamsURL, accessToken)
	if err != nil {
		return nil, err
	}

	streams := &streamsResponse{}
	if err := json.Unmarshal(respBytes, streams); err != nil {
		return nil, fmt.Errorf("failed to unmarshal activity streams response bytes: %w", err)
	}

	if err := a.cache.Set([]byte(cacheKey), respBytes, detailCacheExpire); err != nil {
		log.Errorf("failed to write streams cache for activity %d: %s", activityID, err)
	}

	return streams, nil
}

func (a *Api) get(ctx context.Context, reqURL, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response bytes: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       string(respBytes),
		}
	}

	return respBytes, nil
}

func filterExisting(activities []Activity, existingIDs map[int64]struct{}) []Activity {
	filtered := make([]Activity, 0, len(activities))
	for _, act := range activities {
		if _, ok := existingIDs[act.ID]; ok {
			continue
		}
		filtered = append(filtered, act)
	}
	return filtered
}
