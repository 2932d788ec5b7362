package report

import (
	"fmt"
	"strings"

	"github.com/kamilpajak/qaharness/pkg/models"
)

// ExecutiveMarkdown renders the executive-summary.md document.
func ExecutiveMarkdown(title string, snap models.Snapshot, env models.EnvironmentSnapshot, summary ExecutiveSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s: Executive Summary\n\n", title)
	fmt.Fprintf(&b, "**Quality: %s** (%s pass rate)\n\n", summary.Quality, FormatPercent(snap.Overall.PassRate))

	b.WriteString("## Run\n")
	fmt.Fprintf(&b, "- Environment: %s\n", env.Environment)
	fmt.Fprintf(&b, "- Branch: %s\n", env.Branch)
	fmt.Fprintf(&b, "- Run ID: %s\n", env.RunID)
	if env.CI {
		b.WriteString("- Executed in CI\n")
	}
	if !env.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "- Generated: %s\n", env.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	}

	b.WriteString("\n## Key Metrics\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total | %d |\n", snap.Overall.Total)
	fmt.Fprintf(&b, "| Passed | %d |\n", snap.Overall.Passed)
	fmt.Fprintf(&b, "| Failed | %d |\n", snap.Overall.Failed)
	fmt.Fprintf(&b, "| Skipped | %d |\n", snap.Overall.Skipped)
	fmt.Fprintf(&b, "| Flaky | %d |\n", snap.Overall.Flaky)
	fmt.Fprintf(&b, "| Pass rate | %s |\n", FormatPercent(snap.Overall.PassRate))
	fmt.Fprintf(&b, "| Duration | %s |\n", FormatDuration(snap.Overall.DurationMS))

	if len(snap.Channels) > 0 || snap.API != nil {
		b.WriteString("\n## Channels\n\n")
		b.WriteString("| Channel | Passed | Total | Pass rate |\n|---|---|---|---|\n")
		for _, c := range snap.Channels {
			fmt.Fprintf(&b, "| %s | %d | %d | %s |\n", c.Name, c.Passed, c.Total, FormatPercent(c.PassRate))
		}
		if snap.API != nil {
			fmt.Fprintf(&b, "| API (%s) | %d | %d | %s |\n", snap.API.Name, snap.API.Passed, snap.API.Total, FormatPercent(snap.API.PassRate))
		}
	}

	if len(snap.Suites) > 0 {
		b.WriteString("\n## Suites\n\n")
		for _, s := range snap.Suites {
			fmt.Fprintf(&b, "- %s: %d/%d passed (%s)\n", s.Name, s.Passed, s.Total, FormatPercent(s.PassRate))
		}
	}

	if len(summary.TopFailures) > 0 {
		b.WriteString("\n## Top Failures\n\n")
		for _, f := range summary.TopFailures {
			fmt.Fprintf(&b, "- %dx `%s`\n", f.Count, strings.ReplaceAll(f.Message, "`", "'"))
		}
	}

	b.WriteString("\n## Recommendations\n\n")
	for _, r := range summary.Recommendations {
		fmt.Fprintf(&b, "- %s\n", r)
	}

	return b.String()
}
