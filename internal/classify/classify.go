// Package classify partitions merged pull requests into feature/fix work and
// dependency updates. Classification is pure: no I/O, no mutation of inputs.
package classify

import (
	"regexp"
	"strings"

	"github.com/delivops/release-notes-generator/pkg/models"
)

// botAuthors are the dependency-bot logins recognized as authors of
// dependency-update pull requests.
var botAuthors = map[string]bool{
	"dependabot[bot]":  true,
	"dependabot":       true,
	"renovate[bot]":    true,
	"renovate-bot":     true,
	"greenkeeper[bot]": true,
	"snyk-bot":         true,
	"depfu[bot]":       true,
	"pyup-bot":         true,
}

// dependencyLabels are label names that mark a pull request as a dependency
// update regardless of its title.
var dependencyLabels = map[string]bool{
	"dependencies": true,
	"dependency":   true,
	"deps":         true,
}

// Title patterns for dependency-update pull requests: conventional-commit
// dependency scopes and the "bump X from Y to Z" convention used by bots.
var (
	depsPrefixPattern = regexp.MustCompile(`(?i)^(chore|build|fix)\(deps(-dev)?\)`)
	bumpPattern       = regexp.MustCompile(`(?i)^(bump|update)\s+\S+\s+from\s+\S+\s+to\s+\S+`)
)

// Split partitions the given pull requests for one repository. Every pull
// request lands in exactly one bucket and fetch order is preserved. The
// author and label checks take precedence over title heuristics, so a bot PR
// with feature-like words in its title still counts as a dependency update.
func Split(repository string, prs []models.PullRequest) models.ClassifiedPRs {
	classified := models.ClassifiedPRs{Repository: repository}

	for _, pr := range prs {
		if IsDependencyUpdate(pr) {
			classified.Dependencies = append(classified.Dependencies, pr)
		} else {
			classified.Features = append(classified.Features, pr)
		}
	}

	return classified
}

// IsDependencyUpdate reports whether a single pull request is a dependency
// update per the bot-author, label, and title-pattern heuristics.
func IsDependencyUpdate(pr models.PullRequest) bool {
	if botAuthors[strings.ToLower(pr.Author)] {
		return true
	}

	for _, label := range pr.Labels {
		if dependencyLabels[strings.ToLower(label)] {
			return true
		}
	}

	title := strings.TrimSpace(pr.Title)
	return depsPrefixPattern.MatchString(title) || bumpPattern.MatchString(title)
}
