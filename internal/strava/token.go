package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bkovacev/runsight/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

// https://developers.strava.com/docs/authentication/#refreshingexpiredaccesstokens

type TokenProvider struct {
	tokenURL     string
	clientID     string
	clientSecret string
	refreshToken string
	httpClient   *http.Client
}

func NewTokenProvider(tokenURL, clientID, clientSecret, refreshToken string, httpClient *http.Client) *TokenProvider {
	return &TokenProvider{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		httpClient:   httpClient,
	}
}

// RefreshAccessToken exchanges the long-lived refresh token for a short-lived
// access token. The access token is not cached here, callers re-request it
// once per refresh cycle.
func (t *TokenProvider) RefreshAccessToken(ctx context.Context) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "strava.refreshAccessToken")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	form := url.Values{}
	form.Set("client_id", t.clientID)
	form.Set("client_secret", t.clientSecret)
	form.Set("refresh_token", t.refreshToken)
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response bytes: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &AuthError{
			StatusCode: resp.StatusCode,
			Body:       string(respBytes),
		}
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(respBytes, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal token response bytes: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", errors.New("token response without access token")
	}

	log.Debugln("strava access token refreshed")

	return tokenResp.AccessToken, nil
}
