// Package report merges per-repository summaries into the final formatted
// release notes message.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/delivops/release-notes-generator/internal/logging"
	"github.com/delivops/release-notes-generator/pkg/models"
)

const reportHeader = "🗞 Release Notes"

// Assembler builds release reports. DropEmpty controls whether repositories
// without reportable content are omitted from the report; the default keeps
// the message terse by dropping them.
type Assembler struct {
	DropEmpty bool
}

// NewAssembler returns an assembler with the default drop-empty policy.
func NewAssembler() *Assembler {
	return &Assembler{DropEmpty: true}
}

// Assemble merges the summaries into one report. Repository order is the
// order of the input slice; nil entries (skipped repositories) are ignored.
// Output is deterministic: the same input produces byte-identical text.
func (a *Assembler) Assemble(summaries []*models.RepositorySummary, generatedAt time.Time) models.ReleaseReport {
	report := models.ReleaseReport{GeneratedAt: generatedAt}

	for _, summary := range summaries {
		if summary == nil {
			continue
		}
		report.TotalDependencyCount += summary.DependencyCount

		if a.DropEmpty && summary.IsEmpty() {
			logging.Debug("dropping repository with no reportable content",
				"repository", summary.Repository)
			continue
		}
		report.Summaries = append(report.Summaries, *summary)
	}

	report.Text = format(report)
	return report
}

// format renders the canonical plain-text representation of the report.
func format(report models.ReleaseReport) string {
	var b strings.Builder

	b.WriteString(reportHeader)
	b.WriteString("\n")

	for _, summary := range report.Summaries {
		fmt.Fprintf(&b, "\n*%s*: %s\n", summary.Repository, summary.Narrative)
		for _, bullet := range summary.Bullets {
			fmt.Fprintf(&b, "• %s\n", bullet)
		}
	}

	if report.TotalDependencyCount > 0 {
		fmt.Fprintf(&b, "\nDependency Updates: %d dependency update(s) merged\n",
			report.TotalDependencyCount)
	}

	return b.String()
}
