// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"

	"github.com/delivops/release-notes-generator/internal/config"
	"github.com/delivops/release-notes-generator/internal/logging"
	"github.com/delivops/release-notes-generator/pkg/models"
)

// Sentinel errors used by the orchestrator to decide how to treat a failed
// repository. ErrRepoAccess marks not-found or access-denied conditions and
// the repository is skipped outright; ErrTransient marks transport-level
// failures that are worth one bounded retry.
var (
	ErrRepoAccess = errors.New("repository not accessible")
	ErrTransient  = errors.New("transient github error")
)

// Client encapsulates the GitHub API client.
type Client struct {
	client *github.Client
}

// NewClient creates a new GitHub API client authenticated with the token from
// the supplied configuration.
func NewClient(cfg *config.Config) (*Client, error) {
	token := cfg.GitHub.Token
	if token == "" {
		return nil, fmt.Errorf("github token not found in configuration")
	}

	logging.Debug("github configuration", "token", logging.MaskSensitive(token))

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	return &Client{client: github.NewClient(tc)}, nil
}

// Validate performs a lightweight authenticated call to confirm the token is
// usable. It must succeed before any repository is processed.
func (c *Client) Validate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	user, _, err := c.client.Users.Get(ctx, "")
	if err != nil {
		return fmt.Errorf("github authentication failed: %w", err)
	}

	logging.Info("github authentication successful", "username", user.GetLogin())
	return nil
}

// FetchMergedPRs retrieves all pull requests merged into the repository's
// default branch within the given time window. The repository should be in
// the format "owner/repo". Pagination is fully drained; results keep the
// order returned by the API.
func (c *Client) FetchMergedPRs(ctx context.Context, repository string, window models.TimeWindow) ([]models.PullRequest, error) {
	parts := strings.Split(repository, "/")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid repository format: %s, expected format: owner/repo", repository)
	}
	owner, repo := parts[0], parts[1]

	repoInfo, resp, err := c.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, classifyError(repository, resp, err)
	}
	defaultBranch := repoInfo.GetDefaultBranch()

	logging.Info("fetching merged pull requests",
		"repository", repository,
		"default_branch", defaultBranch,
		"window_start", window.Start.Format(time.RFC3339),
		"window_end", window.End.Format(time.RFC3339))

	opts := &github.PullRequestListOptions{
		State:     "closed",
		Base:      defaultBranch,
		Sort:      "updated",
		Direction: "desc",
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}

	var allPRs []*github.PullRequest
	for {
		prs, resp, err := c.client.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, classifyError(repository, resp, err)
		}

		allPRs = append(allPRs, prs...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	// Keep only pull requests actually merged inside the window. Closed but
	// unmerged pull requests have a nil MergedAt.
	var result []models.PullRequest
	for _, pr := range allPRs {
		mergedAt := pr.GetMergedAt()
		if pr.MergedAt == nil || !window.Contains(mergedAt) {
			continue
		}

		labelNames := make([]string, 0, len(pr.Labels))
		for _, label := range pr.Labels {
			labelNames = append(labelNames, label.GetName())
		}

		result = append(result, models.PullRequest{
			Repository: repository,
			Number:     pr.GetNumber(),
			Title:      pr.GetTitle(),
			Author:     pr.User.GetLogin(),
			MergedAt:   mergedAt,
			Labels:     labelNames,
			Body:       pr.GetBody(),
		})
	}

	logging.Info("found merged pull requests",
		"repository", repository,
		"count", len(result))

	return result, nil
}

// classifyError maps a GitHub API failure onto the fetch error taxonomy.
// Not-found and forbidden responses mean the repository is unusable for this
// run; everything else is treated as transient.
func classifyError(repository string, resp *github.Response, err error) error {
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusNotFound, http.StatusForbidden, http.StatusUnauthorized:
			return fmt.Errorf("%w: %s: %v", ErrRepoAccess, repository, err)
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrTransient, repository, err)
}
