package mirror

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContentsPath = "/repos/testowner/testrepo/contents/data/activities.parquet"

func newTestMirror(t *testing.T, serverURL string) *GitHubMirror {
	t.Helper()
	m := NewGitHubMirror(
		http.DefaultClient, "test-gh-token",
		"testowner", "testrepo", "main", "data/activities.parquet",
	)
	require.NoError(t, m.SetBaseURL(serverURL+"/"))
	return m
}

func TestGitHubMirror_Push_CreatesWhenMissing(t *testing.T) {
	var createdBody map[string]any

	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, testContentsPath, r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&createdBody))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"content":{"sha":"new-sha"}}`))
		default:
			t.Fatalf("unexpected method: %s", r.Method)
		}
	}))
	defer testServer.Close()

	m := newTestMirror(t, testServer.URL)
	require.NoError(t, m.Push(context.Background(), []byte("cache-bytes")))

	require.NotNil(t, createdBody)
	assert.Equal(t, "main", createdBody["branch"])
	assert.NotContains(t, createdBody, "sha")

	contentBase64, ok := createdBody["content"].(string)
	require.True(t, ok)
	decoded, err := base64.StdEncoding.DecodeString(contentBase64)
	require.NoError(t, err)
	assert.Equal(t, []byte("cache-bytes"), decoded)
}

func TestGitHubMirror_Push_UpdatesWithSHA(t *testing.T) {
	var updateBody map[string]any

	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, testContentsPath, r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "main", r.URL.Query().Get("ref"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"type": "file",
				"name": "activities.parquet",
				"path": "data/activities.parquet",
				"sha": "existing-sha",
				"encoding": "base64",
				"content": ""
			}`))
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&updateBody))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"content":{"sha":"updated-sha"}}`))
		default:
			t.Fatalf("unexpected method: %s", r.Method)
		}
	}))
	defer testServer.Close()

	m := newTestMirror(t, testServer.URL)
	require.NoError(t, m.Push(context.Background(), []byte("newer-cache-bytes")))

	require.NotNil(t, updateBody)
	assert.Equal(t, "existing-sha", updateBody["sha"])
	assert.Equal(t, "main", updateBody["branch"])
}

func TestGitHubMirror_Push_GetContentsFailure(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"upstream broke"}`, http.StatusInternalServerError)
	}))
	defer testServer.Close()

	m := newTestMirror(t, testServer.URL)
	err := m.Push(context.Background(), []byte("cache-bytes"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get mirror file contents")
}

func TestGitHubMirror_Push_UpdateFailure(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"type": "file", "sha": "existing-sha", "encoding": "base64", "content": ""}`)
		case http.MethodPut:
			http.Error(w, `{"message":"conflict"}`, http.StatusConflict)
		}
	}))
	defer testServer.Close()

	m := newTestMirror(t, testServer.URL)
	err := m.Push(context.Background(), []byte("cache-bytes"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update mirror file")
}
