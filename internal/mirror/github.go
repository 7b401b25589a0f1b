package mirror

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bkovacev/runsight/internal/telemetry/tracing"

	"github.com/google/go-github/v60/github"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// GitHubMirror keeps a copy of the activity cache file in a git repository,
// one commit per push. The repository's own versioning is the revision
// mechanism, pushes are last-write-wins on top of the currently read blob SHA.
type GitHubMirror struct {
	client   *github.Client
	owner    string
	repo     string
	branch   string
	filePath string
}

func NewGitHubMirror(
	httpClient *http.Client,
	accessToken string,
	owner, repo, branch, filePath string,
) *GitHubMirror {
	return &GitHubMirror{
		client:   github.NewClient(httpClient).WithAuthToken(accessToken),
		owner:    owner,
		repo:     repo,
		branch:   branch,
		filePath: filePath,
	}
}

// SetBaseURL points the underlying client at a different API root. Used in
// tests to target a local server.
func (m *GitHubMirror) SetBaseURL(rawURL string) error {
	baseURL, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	m.client.BaseURL = baseURL
	return nil
}

// Push commits the content to the configured repository path. The file is
// created on first push and updated with the previously read blob SHA
// afterwards.
func (m *GitHubMirror) Push(ctx context.Context, content []byte) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "githubMirror.push")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("content_size", len(content)))

	commitMessage := fmt.Sprintf("update activity cache [%s]", time.Now().UTC().Format(time.RFC3339))
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(commitMessage),
		Content: content,
		Branch:  github.String(m.branch),
	}

	existing, _, resp, err := m.client.Repositories.GetContents(
		ctx, m.owner, m.repo, m.filePath,
		&github.RepositoryContentGetOptions{Ref: m.branch},
	)
	if err != nil {
		if resp == nil || resp.StatusCode != http.StatusNotFound {
			return fmt.Errorf("get mirror file contents: %w", err)
		}

		log.Debugf("mirror file [%s] not found in %s/%s, creating", m.filePath, m.owner, m.repo)
		if _, _, err := m.client.Repositories.CreateFile(
			ctx, m.owner, m.repo, m.filePath, opts,
		); err != nil {
			return fmt.Errorf("create mirror file: %w", err)
		}
		return nil
	}

	opts.SHA = existing.SHA
	if _, _, err := m.client.Repositories.UpdateFile(
		ctx, m.owner, m.repo, m.filePath, opts,
	); err != nil {
		return fmt.Errorf("update mirror file: %w", err)
	}

	log.Debugf("mirror file [%s] updated in %s/%s", m.filePath, m.owner, m.repo)

	return nil
}
