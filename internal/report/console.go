package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/kamilpajak/qaharness/pkg/models"
)

// PrintSummary writes the end-of-run console block: a suite table, the
// quality verdict and the recommendations.
func PrintSummary(w io.Writer, snap models.Snapshot) {
	summary := Summarize(snap)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Test Run Summary")
	t.AppendHeader(table.Row{"Suite", "Tests", "Passed", "Failed", "Skipped", "Flaky", "Pass rate", "Duration"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Suite", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
		{Name: "Flaky", Align: text.AlignRight},
		{Name: "Pass rate", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})

	for _, s := range snap.Suites {
		t.AppendRow(table.Row{
			s.Name, s.Total, s.Passed, s.Failed, s.Skipped, s.Flaky,
			FormatPercent(s.PassRate), FormatDuration(s.DurationMS),
		})
	}

	t.AppendFooter(table.Row{
		"TOTAL", snap.Overall.Total, snap.Overall.Passed, snap.Overall.Failed,
		snap.Overall.Skipped, snap.Overall.Flaky,
		FormatPercent(snap.Overall.PassRate), FormatDuration(snap.Overall.DurationMS),
	})

	switch {
	case snap.Overall.Failed > 0:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	case snap.Overall.Skipped > 0 || snap.Overall.Flaky > 0:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}
	if color.NoColor {
		t.SetStyle(table.StyleLight)
	}

	t.Render()

	fmt.Fprintln(w)
	_, _ = qualityColor(summary.Quality).Fprintf(w, "Quality: %s (%s)\n", summary.Quality, FormatPercent(snap.Overall.PassRate))

	if len(snap.Failures) > 0 {
		dim := color.New(color.FgHiBlack)
		fmt.Fprintf(w, "Failures: %d attempt(s)\n", len(snap.Failures))
		for _, f := range summary.TopFailures {
			_, _ = dim.Fprintf(w, "  %dx ", f.Count)
			fmt.Fprintln(w, truncate(f.Message, 120))
		}
	}

	fmt.Fprintln(w, "Recommendations:")
	for _, r := range summary.Recommendations {
		fmt.Fprintf(w, "  - %s\n", r)
	}
}

func qualityColor(q QualityRating) *color.Color {
	switch q {
	case QualityExcellent:
		return color.New(color.FgGreen, color.Bold)
	case QualityGood:
		return color.New(color.FgCyan, color.Bold)
	case QualityFair:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
