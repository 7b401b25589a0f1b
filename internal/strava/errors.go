package strava

import (
	"errors"
	"fmt"
)

// ErrRateLimited signals an upstream 429. It is a soft condition: callers
// should treat it as "no new data this cycle", never as a fatal error.
var ErrRateLimited = errors.New("strava: too many requests")

// AuthError is returned when the access token refresh fails.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("strava token refresh failed: status %d: %s", e.StatusCode, e.Body)
}

// UpstreamError is any unexpected non-429 failure from the activities API.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("strava api error: status %d: %s", e.StatusCode, e.Body)
}
