// Package pipeline orchestrates a release notes run: validate connections,
// fetch/classify/summarize each repository, assemble the report, publish it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/delivops/release-notes-generator/internal/classify"
	gh "github.com/delivops/release-notes-generator/internal/github"
	"github.com/delivops/release-notes-generator/internal/logging"
	"github.com/delivops/release-notes-generator/internal/report"
	"github.com/delivops/release-notes-generator/pkg/models"
)

// fetchRetryInterval is the pause before the single transient-fetch retry.
// Variable so tests can shorten it.
var fetchRetryInterval = time.Second

// Fetcher retrieves the merged pull requests of one repository.
type Fetcher interface {
	FetchMergedPRs(ctx context.Context, repository string, window models.TimeWindow) ([]models.PullRequest, error)
}

// Summarizer produces the digest for one repository's classified pull
// requests. It never fails; degraded results use the fallback summary.
type Summarizer interface {
	Summarize(ctx context.Context, classified models.ClassifiedPRs) models.RepositorySummary
}

// Publisher delivers the final report and returns the post timestamp.
type Publisher interface {
	Publish(ctx context.Context, text string) (string, error)
}

// Validator is a connection check against one external capability.
type Validator interface {
	Validate(ctx context.Context) error
}

// NamedValidator pairs a validator with the capability it covers so a
// pre-flight failure identifies the bad credential. Optional capabilities
// degrade instead of aborting the run: the AI provider falls back to
// templated summaries, so its pre-flight failure is not fatal.
type NamedValidator struct {
	Name      string
	Validator Validator
	Optional  bool
}

// Pipeline drives one stateless release notes run.
type Pipeline struct {
	fetcher     Fetcher
	summarizer  Summarizer
	publisher   Publisher
	assembler   *report.Assembler
	validators  []NamedValidator
	concurrency int
}

// New creates a pipeline. Concurrency bounds the repository worker pool and
// is clamped to at least one worker.
func New(fetcher Fetcher, summarizer Summarizer, publisher Publisher, assembler *report.Assembler, validators []NamedValidator, concurrency int) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		fetcher:     fetcher,
		summarizer:  summarizer,
		publisher:   publisher,
		assembler:   assembler,
		validators:  validators,
		concurrency: concurrency,
	}
}

// Run executes the full pipeline for the given repositories, in input order.
// Per-repository failures are logged and skipped; validation and publish
// failures abort the run.
func (p *Pipeline) Run(ctx context.Context, repositories []string, window models.TimeWindow) (models.RunResult, error) {
	if err := p.validate(ctx); err != nil {
		return models.RunResult{}, err
	}

	// Summaries land in a fixed slot per input position so the report order
	// stays deterministic regardless of completion order.
	summaries := make([]*models.RepositorySummary, len(repositories))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, repository := range repositories {
		i, repository := i, repository
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			summaries[i] = p.processRepository(gctx, repository, window)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return models.RunResult{}, fmt.Errorf("run cancelled before publishing: %w", err)
	}
	if err := ctx.Err(); err != nil {
		// A shutdown signal before publishing exits without posting a
		// partial report.
		return models.RunResult{}, fmt.Errorf("run cancelled before publishing: %w", err)
	}

	assembled := p.assembler.Assemble(summaries, time.Now().UTC())

	timestamp, err := p.publisher.Publish(ctx, assembled.Text)
	if err != nil {
		return models.RunResult{Message: assembled.Text}, fmt.Errorf("publishing release notes failed: %w", err)
	}

	return models.RunResult{Message: assembled.Text, Timestamp: timestamp}, nil
}

// validate runs every connection check once, before any repository work. Any
// failure is fatal for the whole run.
func (p *Pipeline) validate(ctx context.Context) error {
	for _, v := range p.validators {
		if err := v.Validator.Validate(ctx); err != nil {
			if v.Optional {
				logging.Warn("optional capability unavailable, run continues degraded",
					"capability", v.Name,
					"error", err)
				continue
			}
			return fmt.Errorf("connection validation failed for %s: %w", v.Name, err)
		}
		logging.Debug("connection validated", "capability", v.Name)
	}
	return nil
}

// processRepository runs fetch, classify, and summarize for one repository.
// Errors are converted into a nil summary (skip) and never propagate.
func (p *Pipeline) processRepository(ctx context.Context, repository string, window models.TimeWindow) *models.RepositorySummary {
	prs, err := p.fetchWithRetry(ctx, repository, window)
	if err != nil {
		logging.Warn("skipping repository",
			"repository", repository,
			"error", err)
		return nil
	}

	classified := classify.Split(repository, prs)
	logging.Info("classified pull requests",
		"repository", repository,
		"features", len(classified.Features),
		"dependencies", len(classified.Dependencies))

	summary := p.summarizer.Summarize(ctx, classified)
	return &summary
}

// fetchWithRetry fetches the repository's merged pull requests, retrying
// once on transient failures. Access errors are not retried.
func (p *Pipeline) fetchWithRetry(ctx context.Context, repository string, window models.TimeWindow) ([]models.PullRequest, error) {
	var prs []models.PullRequest
	operation := func() error {
		var err error
		prs, err = p.fetcher.FetchMergedPRs(ctx, repository, window)
		if err != nil {
			if errors.Is(err, gh.ErrTransient) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(fetchRetryInterval), 1), ctx))
	if err != nil {
		return nil, err
	}
	return prs, nil
}
