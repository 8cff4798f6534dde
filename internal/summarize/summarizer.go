// Package summarize turns the classified pull requests of one repository into
// a short narrative plus bullet points, via the configured AI provider, with
// a deterministic templated fallback when the provider is unavailable.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/delivops/release-notes-generator/internal/ai"
	"github.com/delivops/release-notes-generator/internal/logging"
	"github.com/delivops/release-notes-generator/pkg/models"
)

// Prompt and fallback bounds. Bodies are truncated and only the first
// maxPromptPRs pull requests are included verbatim so prompt size stays
// bounded regardless of repository activity.
const (
	maxPromptPRs     = 30
	maxBodyChars     = 500
	maxFallbackItems = 10
)

const systemPrompt = `You are an expert technical writer creating release notes from merged pull requests.

Rules:
1. Start with ONE short prose paragraph summarizing the overall changes. Do not use a heading.
2. After the paragraph, list the notable changes as bullet lines, each starting with "- ".
3. Synthesize related changes into single bullets; focus on why they matter to users and developers.
4. Never include PR numbers, repository names, or links.
5. Never invent performance claims; use general terms like "improved" or "optimized".
6. Return plain text only, no markdown headings, no code fences.`

// Summarizer produces per-repository summaries. A nil provider forces the
// fallback path for every repository.
type Summarizer struct {
	provider ai.Provider
}

// NewSummarizer creates a summarizer bound to the given provider. The
// provider may be nil when no AI backend is configured.
func NewSummarizer(provider ai.Provider) *Summarizer {
	return &Summarizer{provider: provider}
}

// Summarize builds the digest for one repository. It never fails: AI errors,
// timeouts, and malformed responses all degrade to the templated fallback.
func (s *Summarizer) Summarize(ctx context.Context, classified models.ClassifiedPRs) models.RepositorySummary {
	summary := models.RepositorySummary{
		Repository:      classified.Repository,
		DependencyCount: len(classified.Dependencies),
	}

	if len(classified.Features) == 0 {
		// Nothing to narrate. Dependency updates, if any, are reported
		// through the dependency counter, not through prose.
		summary.Narrative = models.NoChangesNarrative
		return summary
	}

	if s.provider == nil {
		logging.Debug("no ai provider configured, using fallback summary",
			"repository", classified.Repository)
		summary.Narrative, summary.Bullets = Fallback(classified.Features)
		return summary
	}

	text, err := s.provider.Summarize(ctx, systemPrompt, BuildUserPrompt(classified))
	if err != nil {
		logging.Warn("ai summary failed, falling back to templated summary",
			"repository", classified.Repository,
			"provider", s.provider.Name(),
			"error", err)
		summary.Narrative, summary.Bullets = Fallback(classified.Features)
		return summary
	}

	narrative, bullets := ParseResponse(text)
	if narrative == "" {
		logging.Warn("ai returned no narrative, falling back to templated summary",
			"repository", classified.Repository)
		narrative, bullets = Fallback(classified.Features)
	}

	summary.Narrative = narrative
	summary.Bullets = bullets
	return summary
}

// BuildUserPrompt formats the feature pull requests of one repository for the
// AI provider. The prompt is bounded: bodies are truncated and pull requests
// beyond maxPromptPRs are folded into a count.
func BuildUserPrompt(classified models.ClassifiedPRs) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Repository: %s\n\n", classified.Repository)
	b.WriteString("Merged pull requests to analyze:\n")

	included := classified.Features
	omitted := 0
	if len(included) > maxPromptPRs {
		omitted = len(included) - maxPromptPRs
		included = included[:maxPromptPRs]
	}

	for _, pr := range included {
		fmt.Fprintf(&b, "\nPR #%d: %s\n", pr.Number, strings.TrimSpace(pr.Title))
		if body := truncate(strings.TrimSpace(pr.Body), maxBodyChars); body != "" {
			fmt.Fprintf(&b, "Description: %s\n", body)
		}
		if len(pr.Labels) > 0 {
			fmt.Fprintf(&b, "Labels: %s\n", strings.Join(pr.Labels, ", "))
		}
	}

	if omitted > 0 {
		fmt.Fprintf(&b, "\n...and %d more merged pull request(s) not shown.\n", omitted)
	}
	if len(classified.Dependencies) > 0 {
		fmt.Fprintf(&b, "\nAdditionally %d dependency update(s) were merged; do not describe them individually.\n",
			len(classified.Dependencies))
	}

	b.WriteString("\nWrite the release notes following the rules above.")
	return b.String()
}

// ParseResponse splits provider output into one narrative paragraph and a
// list of bullets. Lines starting with a bullet marker become list items; the
// leading non-bullet lines become the narrative.
func ParseResponse(text string) (string, []string) {
	var narrativeLines, bullets []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if item, ok := trimBulletMarker(line); ok {
			bullets = append(bullets, item)
			continue
		}

		// Non-bullet text after the first bullet is appended to the last
		// bullet rather than mixed back into the narrative.
		if len(bullets) > 0 {
			bullets[len(bullets)-1] += " " + line
			continue
		}
		narrativeLines = append(narrativeLines, line)
	}

	return strings.Join(narrativeLines, " "), bullets
}

// Fallback builds the deterministic summary used when no AI result is
// available. It always produces a non-empty narrative and at most
// maxFallbackItems bullets.
func Fallback(features []models.PullRequest) (string, []string) {
	narrative := fmt.Sprintf("%d pull request(s) merged", len(features))

	bullets := make([]string, 0, maxFallbackItems+1)
	for i, pr := range features {
		if i == maxFallbackItems {
			bullets = append(bullets, fmt.Sprintf("...and %d more", len(features)-maxFallbackItems))
			break
		}
		bullets = append(bullets, strings.TrimSpace(pr.Title))
	}

	return narrative, bullets
}

func trimBulletMarker(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(strings.TrimPrefix(line, marker)), true
		}
	}
	return "", false
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
