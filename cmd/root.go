// Package cmd provides the command-line interface for the release notes generator.
package cmd

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/delivops/release-notes-generator/internal/ai"
	"github.com/delivops/release-notes-generator/internal/config"
	"github.com/delivops/release-notes-generator/internal/github"
	"github.com/delivops/release-notes-generator/internal/logging"
	"github.com/delivops/release-notes-generator/internal/pipeline"
	"github.com/delivops/release-notes-generator/internal/report"
	"github.com/delivops/release-notes-generator/internal/slack"
	"github.com/delivops/release-notes-generator/internal/summarize"
	"github.com/delivops/release-notes-generator/pkg/models"
)

var rootCmd = &cobra.Command{
	Use:   "release-notes",
	Short: "Generate AI-summarized release notes from merged pull requests",
	Long: `release-notes fetches the pull requests merged into the default branch of a
set of GitHub repositories within a lookback window, summarizes them per
repository with an AI provider (OpenAI or Claude), and posts one formatted
digest to a Slack channel. The digest body is also written to a plain-text
artifact for audit.

Credentials are read from the environment: GITHUB_TOKEN, SLACK_BOT_TOKEN,
SLACK_CHANNEL, AI_PROVIDER (openai|claude), and OPENAI_API_KEY or
ANTHROPIC_API_KEY matching the chosen provider.

Example:
  release-notes --repos "org/api,org/frontend" --days-back 7`,
	RunE: run,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().StringP("repos", "r", "", "comma-separated list of GitHub repositories (e.g. 'org/repo1,org/repo2')")
	rootCmd.Flags().IntP("days-back", "d", 7, "number of days to look back for merged pull requests")
	rootCmd.Flags().StringP("output", "o", "generated_message.txt", "path of the plain-text audit artifact")
	rootCmd.Flags().IntP("concurrency", "c", 4, "number of repositories processed in parallel")
	_ = rootCmd.MarkFlagRequired("repos")
}

func run(cmd *cobra.Command, args []string) error {
	reposFlag, err := cmd.Flags().GetString("repos")
	if err != nil {
		return err
	}
	daysBack, err := cmd.Flags().GetInt("days-back")
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	concurrency, err := cmd.Flags().GetInt("concurrency")
	if err != nil {
		return err
	}

	repositories := parseRepositories(reposFlag)
	if len(repositories) == 0 {
		return fmt.Errorf("no valid repositories provided in --repos")
	}

	window, err := models.NewTimeWindow(time.Now().UTC(), daysBack)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	githubClient, err := github.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize github client: %w", err)
	}

	provider, err := ai.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize ai provider: %w", err)
	}

	publisher, err := slack.NewPublisher(cfg, output)
	if err != nil {
		return fmt.Errorf("failed to initialize slack publisher: %w", err)
	}

	validators := []pipeline.NamedValidator{
		{Name: "github", Validator: githubClient},
		// An unreachable AI provider degrades to templated summaries
		// instead of failing the run.
		{Name: provider.Name(), Validator: provider, Optional: true},
		{Name: "slack", Validator: publisher},
	}

	pipe := pipeline.New(
		githubClient,
		summarize.NewSummarizer(provider),
		publisher,
		report.NewAssembler(),
		validators,
		concurrency,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("starting release notes run",
		"repositories", repositories,
		"days_back", daysBack,
		"provider", provider.Name(),
		"concurrency", concurrency)

	result, err := pipe.Run(ctx, repositories, window)
	if err != nil {
		return err
	}

	logging.Info("release notes generation completed",
		"timestamp", result.Timestamp,
		"message_length", len(result.Message),
		"artifact", output)

	return nil
}

// parseRepositories splits the --repos flag value, trimming whitespace and
// dropping empty entries.
func parseRepositories(flag string) []string {
	var repositories []string
	for _, repo := range strings.Split(flag, ",") {
		repo = strings.TrimSpace(repo)
		if repo != "" {
			repositories = append(repositories, repo)
		}
	}
	return repositories
}
