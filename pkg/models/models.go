// Package models defines data structures shared across the application.
package models

import (
	"fmt"
	"time"
)

// PullRequest represents a merged GitHub pull request with its essential fields.
type PullRequest struct {
	// Repository is the repository identifier in "org/repo" format
	Repository string

	// Number is the pull request number in GitHub (e.g., 42)
	Number int

	// Title is the pull request's title
	Title string

	// Author is the login of the user (or bot) that opened the pull request
	Author string

	// MergedAt is the timestamp when the pull request was merged
	MergedAt time.Time

	// Labels is a slice of label names attached to the pull request
	Labels []string

	// Body is the full description text of the pull request, possibly empty
	Body string
}

// TimeWindow is the lookback window a run covers. Start is always before End.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow builds a window ending at now and starting daysBack days earlier.
func NewTimeWindow(now time.Time, daysBack int) (TimeWindow, error) {
	if daysBack <= 0 {
		return TimeWindow{}, fmt.Errorf("days-back must be greater than zero, got %d", daysBack)
	}
	return TimeWindow{
		Start: now.AddDate(0, 0, -daysBack),
		End:   now,
	}, nil
}

// Contains reports whether t falls within the window, bounds included.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ClassifiedPRs partitions the merged pull requests of one repository into
// feature/fix work and dependency updates. Fetch order is preserved in both
// slices and every pull request appears in exactly one of them.
type ClassifiedPRs struct {
	Repository   string
	Features     []PullRequest
	Dependencies []PullRequest
}

// NoChangesNarrative is the narrative used when a repository had no merged
// pull requests in the window.
const NoChangesNarrative = "No merged changes in this period"

// RepositorySummary is the digest produced for a single repository.
type RepositorySummary struct {
	// Repository is the repository identifier in "org/repo" format
	Repository string

	// Narrative is a short prose paragraph describing the changes
	Narrative string

	// Bullets lists notable changes, in order
	Bullets []string

	// DependencyCount is the number of dependency-update PRs merged in the window
	DependencyCount int
}

// IsEmpty reports whether the summary carries no reportable content: a
// no-changes narrative, no bullets, and zero dependency updates.
func (s RepositorySummary) IsEmpty() bool {
	return len(s.Bullets) == 0 && s.DependencyCount == 0 && s.Narrative == NoChangesNarrative
}

// ReleaseReport is the assembled digest for the whole run.
type ReleaseReport struct {
	// Summaries holds the per-repository digests in input order, with empty
	// repositories already dropped
	Summaries []RepositorySummary

	// TotalDependencyCount is the dependency-update total across all repositories
	TotalDependencyCount int

	// GeneratedAt is when the report was assembled
	GeneratedAt time.Time

	// Text is the canonical formatted report body
	Text string
}

// RunResult is the externally observed output of a run.
type RunResult struct {
	// Message is the full report text
	Message string

	// Timestamp is the Slack message timestamp, empty if posting failed but
	// the audit artifact was still written
	Timestamp string
}
