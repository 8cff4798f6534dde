package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gh "github.com/delivops/release-notes-generator/internal/github"
	"github.com/delivops/release-notes-generator/internal/report"
	"github.com/delivops/release-notes-generator/internal/summarize"
	"github.com/delivops/release-notes-generator/pkg/models"
)

// stubFetcher serves canned pull requests per repository, with optional
// per-repository errors and artificial latency.
type stubFetcher struct {
	mu      sync.Mutex
	prs     map[string][]models.PullRequest
	errs    map[string]error
	latency map[string]time.Duration
	calls   map[string]int
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		prs:     map[string][]models.PullRequest{},
		errs:    map[string]error{},
		latency: map[string]time.Duration{},
		calls:   map[string]int{},
	}
}

func (f *stubFetcher) FetchMergedPRs(ctx context.Context, repository string, window models.TimeWindow) ([]models.PullRequest, error) {
	f.mu.Lock()
	f.calls[repository]++
	delay := f.latency[repository]
	err := f.errs[repository]
	prs := f.prs[repository]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return prs, nil
}

func (f *stubFetcher) callCount(repository string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[repository]
}

// stubPublisher records the published text.
type stubPublisher struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (p *stubPublisher) Publish(ctx context.Context, text string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.text = text
	if p.err != nil {
		return "", p.err
	}
	return "1718451600.000100", nil
}

type stubValidator struct {
	err   error
	calls int
}

func (v *stubValidator) Validate(ctx context.Context) error {
	v.calls++
	return v.err
}

func window(t *testing.T) models.TimeWindow {
	t.Helper()
	w, err := models.NewTimeWindow(time.Now().UTC(), 7)
	require.NoError(t, err)
	return w
}

func newPipeline(t *testing.T, fetcher Fetcher, publisher Publisher, validators []NamedValidator, concurrency int) *Pipeline {
	t.Helper()
	original := fetchRetryInterval
	fetchRetryInterval = time.Millisecond
	t.Cleanup(func() { fetchRetryInterval = original })

	return New(fetcher, summarize.NewSummarizer(nil), publisher, report.NewAssembler(), validators, concurrency)
}

func TestRunReportOrderIndependentOfCompletionOrder(t *testing.T) {
	repos := []string{"org/first", "org/second", "org/third", "org/fourth"}

	fetcher := newStubFetcher()
	for i, repo := range repos {
		// Earlier repositories finish last.
		fetcher.latency[repo] = time.Duration(len(repos)-i) * 30 * time.Millisecond
		fetcher.prs[repo] = []models.PullRequest{
			{Repository: repo, Number: i + 1, Title: fmt.Sprintf("Change in %s", repo), Author: "octocat"},
		}
	}

	publisher := &stubPublisher{}
	pipe := newPipeline(t, fetcher, publisher, nil, len(repos))

	result, err := pipe.Run(context.Background(), repos, window(t))
	require.NoError(t, err)

	var positions []int
	for _, repo := range repos {
		idx := strings.Index(result.Message, fmt.Sprintf("*%s*", repo))
		require.GreaterOrEqual(t, idx, 0, "expected %q in report:\n%s", repo, result.Message)
		positions = append(positions, idx)
	}
	for i := 1; i < len(positions); i++ {
		assert.Greater(t, positions[i], positions[i-1],
			"repository blocks must appear in input order, got message:\n%s", result.Message)
	}
}

func TestRunSkipsInaccessibleRepository(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.prs["org/good"] = []models.PullRequest{
		{Repository: "org/good", Number: 1, Title: "Add caching layer", Author: "octocat"},
	}
	fetcher.errs["org/bad"] = fmt.Errorf("%w: org/bad: 403", gh.ErrRepoAccess)

	publisher := &stubPublisher{}
	pipe := newPipeline(t, fetcher, publisher, nil, 2)

	result, err := pipe.Run(context.Background(), []string{"org/bad", "org/good"}, window(t))
	require.NoError(t, err, "a single inaccessible repository must not fail the run")

	assert.Contains(t, result.Message, "*org/good*")
	assert.NotContains(t, result.Message, "org/bad")
	assert.Equal(t, 1, fetcher.callCount("org/bad"), "access errors must not be retried")
	assert.Equal(t, "1718451600.000100", result.Timestamp)
}

func TestRunRetriesTransientFetchOnce(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.errs["org/flaky"] = fmt.Errorf("%w: connection reset", gh.ErrTransient)

	publisher := &stubPublisher{}
	pipe := newPipeline(t, fetcher, publisher, nil, 1)

	_, err := pipe.Run(context.Background(), []string{"org/flaky"}, window(t))
	require.NoError(t, err, "a repository failing after retries is skipped, not fatal")

	assert.Equal(t, 2, fetcher.callCount("org/flaky"), "transient errors get exactly one retry")
}

func TestRunValidationFailureIsFatal(t *testing.T) {
	fetcher := newStubFetcher()
	publisher := &stubPublisher{}
	badValidator := &stubValidator{err: errors.New("invalid_auth")}

	pipe := newPipeline(t, fetcher, publisher, []NamedValidator{
		{Name: "github", Validator: &stubValidator{}},
		{Name: "slack", Validator: badValidator},
	}, 1)

	_, err := pipe.Run(context.Background(), []string{"org/repo"}, window(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slack")
	assert.Zero(t, fetcher.callCount("org/repo"), "no repository work before validation passes")
	assert.Zero(t, publisher.calls)
}

func TestRunOptionalValidatorFailureDegrades(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.prs["org/repo"] = []models.PullRequest{
		{Repository: "org/repo", Number: 1, Title: "Add retry logic", Author: "octocat"},
	}

	publisher := &stubPublisher{}
	pipe := newPipeline(t, fetcher, publisher, []NamedValidator{
		{Name: "github", Validator: &stubValidator{}},
		{Name: "openai", Validator: &stubValidator{err: errors.New("401 invalid api key")}, Optional: true},
		{Name: "slack", Validator: &stubValidator{}},
	}, 1)

	result, err := pipe.Run(context.Background(), []string{"org/repo"}, window(t))
	require.NoError(t, err, "an unreachable AI provider must not fail the run")

	// The fallback summary still produces a full report.
	assert.Contains(t, result.Message, "*org/repo*: 1 pull request(s) merged")
	assert.Equal(t, 1, publisher.calls)
}

func TestRunPublishFailureIsFatalButKeepsMessage(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.prs["org/repo"] = []models.PullRequest{
		{Repository: "org/repo", Number: 1, Title: "Improve logging", Author: "octocat"},
	}

	publisher := &stubPublisher{err: errors.New("channel_not_found")}
	pipe := newPipeline(t, fetcher, publisher, nil, 1)

	result, err := pipe.Run(context.Background(), []string{"org/repo"}, window(t))
	require.Error(t, err)
	assert.Contains(t, result.Message, "*org/repo*")
	assert.Empty(t, result.Timestamp)
}

func TestRunCancelledBeforePublishing(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.prs["org/repo"] = []models.PullRequest{
		{Repository: "org/repo", Number: 1, Title: "Slow change", Author: "octocat"},
	}
	fetcher.latency["org/repo"] = 200 * time.Millisecond

	publisher := &stubPublisher{}
	pipe := newPipeline(t, fetcher, publisher, nil, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := pipe.Run(ctx, []string{"org/repo"}, window(t))
	require.Error(t, err)
	assert.Zero(t, publisher.calls, "no partial report may be posted after cancellation")
}

// End-to-end scenario: one active repository plus one quiet repository yields
// a single block and a dependency trailer; the quiet repository is omitted.
func TestRunEndToEndSingleActiveRepository(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.prs["org/api"] = []models.PullRequest{
		{Repository: "org/api", Number: 1, Title: "Add pagination", Author: "octocat"},
		{Repository: "org/api", Number: 2, Title: "Fix timeout handling", Author: "octocat"},
		{Repository: "org/api", Number: 3, Title: "Improve error messages", Author: "octocat"},
		{Repository: "org/api", Number: 4, Title: "Bump lodash from 4.17.1 to 4.17.21", Author: "dependabot[bot]"},
	}
	fetcher.prs["org/quiet"] = nil

	publisher := &stubPublisher{}
	pipe := newPipeline(t, fetcher, publisher, nil, 2)

	result, err := pipe.Run(context.Background(), []string{"org/api", "org/quiet"}, window(t))
	require.NoError(t, err)

	assert.Contains(t, result.Message, "🗞 Release Notes")
	assert.Contains(t, result.Message, "*org/api*: 3 pull request(s) merged")
	assert.Contains(t, result.Message, "• Add pagination")
	assert.Contains(t, result.Message, "Dependency Updates: 1 dependency update(s) merged")
	assert.NotContains(t, result.Message, "org/quiet")
	assert.Equal(t, result.Message, publisher.text)
}
