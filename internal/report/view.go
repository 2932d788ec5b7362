package report

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/kamilpajak/qaharness/pkg/models"
)

type testView struct {
	Title    string
	Channel  string
	Status   string
	Filter   string
	Icon     string
	Duration string
	Attempts int
	Flaky    bool
	Error    string
}

type groupView struct {
	Name     string
	Stats    models.GroupMetrics
	PassRate string
	Duration string
	Open     bool
	Tests    []testView
}

type failureView struct {
	models.FailureRecord
	Duration string
	Text     string
}

type reportView struct {
	Title           string
	Quality         QualityRating
	QualityClass    string
	Overall         models.OverallMetrics
	PassRate        string
	PassDegrees     float64
	FailDegrees     float64
	Duration        string
	WallClock       string
	Env             models.EnvironmentSnapshot
	Suites          []groupView
	Channels        []groupView
	API             *groupView
	Failures        []failureView
	TopFailures     []FailureCount
	Recommendations []string
}

func (r *Renderer) buildView(snap models.Snapshot, env models.EnvironmentSnapshot, summary ExecutiveSummary) reportView {
	v := reportView{
		Title:           r.title,
		Quality:         summary.Quality,
		QualityClass:    strings.ToLower(string(summary.Quality)),
		Overall:         snap.Overall,
		PassRate:        FormatPercent(snap.Overall.PassRate),
		PassDegrees:     ringDegrees(snap.Overall.Passed, snap.Overall.Total),
		FailDegrees:     ringDegrees(snap.Overall.Passed+snap.Overall.Failed, snap.Overall.Total),
		Duration:        FormatDuration(snap.Overall.DurationMS),
		Env:             env,
		TopFailures:     summary.TopFailures,
		Recommendations: summary.Recommendations,
	}

	if !snap.StartedAt.IsZero() && snap.FinishedAt.After(snap.StartedAt) {
		v.WallClock = FormatDuration(snap.FinishedAt.Sub(snap.StartedAt).Milliseconds())
	}

	for _, s := range snap.Suites {
		g := newGroupView(s.GroupMetrics)
		g.Open = s.Failed > 0
		for _, row := range s.Tests {
			g.Tests = append(g.Tests, testView{
				Title:    row.Title,
				Channel:  row.Channel,
				Status:   string(row.Status),
				Filter:   filterStatus(row),
				Icon:     statusIcon(row.Status, row.Flaky),
				Duration: FormatDuration(row.DurationMS),
				Attempts: row.Attempts,
				Flaky:    row.Flaky,
				Error:    formatErrorText(row.Error),
			})
		}
		v.Suites = append(v.Suites, g)
	}

	for _, c := range snap.Channels {
		v.Channels = append(v.Channels, newGroupView(c.GroupMetrics))
	}
	if snap.API != nil {
		g := newGroupView(snap.API.GroupMetrics)
		v.API = &g
	}

	for _, f := range snap.Failures {
		v.Failures = append(v.Failures, failureView{
			FailureRecord: f,
			Duration:      FormatDuration(f.DurationMS),
			Text:          formatErrorText(f.Error),
		})
	}

	return v
}

func newGroupView(g models.GroupMetrics) groupView {
	return groupView{
		Name:     g.Name,
		Stats:    g,
		PassRate: FormatPercent(g.PassRate),
		Duration: FormatDuration(g.DurationMS),
	}
}

// ringDegrees converts a share of total into degrees of the conic ring chart.
func ringDegrees(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 360
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDuration": FormatDuration,
		"percent":        FormatPercent,
		"degrees": func(d float64) string {
			return fmt.Sprintf("%.2fdeg", d)
		},
		"channelLabel": func(name string) string {
			if name == "" {
				return "default"
			}
			return name
		},
	}
}
