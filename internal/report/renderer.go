// Package report renders run metrics into the HTML report, the JSON snapshot
// and the executive summary.
package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"github.com/kamilpajak/qaharness/pkg/models"
)

// Artifact file names consumed by CI pipelines.
const (
	HTMLFilename    = "enterprise-report.html"
	JSONFilename    = "test-data.json"
	SummaryFilename = "executive-summary.md"
	ErrorFilename   = "report-error.txt"
)

const maxTopFailures = 10

//go:embed templates/report.html.tmpl
var templatesFS embed.FS

// Artifacts holds the rendered report documents
type Artifacts struct {
	HTML    []byte
	JSON    []byte
	Summary []byte
}

// ExecutiveSummary is the condensed verdict of a run
type ExecutiveSummary struct {
	Quality         QualityRating  `json:"quality"`
	PassRate        float64        `json:"passRate"`
	Recommendations []string       `json:"recommendations"`
	TopFailures     []FailureCount `json:"topFailures"`
}

// Document is the machine-readable test-data.json layout.
type Document struct {
	Timestamp      time.Time                        `json:"timestamp"`
	Metrics        models.OverallMetrics            `json:"metrics"`
	BrowserMetrics map[string]models.ChannelMetrics `json:"browserMetrics"`
	SuiteMetrics   []models.SuiteMetrics            `json:"suiteMetrics"`
	APIMetrics     *models.ChannelMetrics           `json:"apiMetrics"`
	Failures       []models.FailureRecord           `json:"failures"`
	Environment    models.EnvironmentSnapshot       `json:"environment"`
	Summary        ExecutiveSummary                 `json:"summary"`
}

// Options configures a Renderer
type Options struct {
	Title string
}

// Renderer turns a finalized snapshot into report artifacts. It holds no
// per-run state and can be reused.
type Renderer struct {
	title string
	tmpl  *template.Template
}

// NewRenderer parses the embedded HTML template.
func NewRenderer(opts Options) (*Renderer, error) {
	title := opts.Title
	if title == "" {
		title = "Enterprise Test Report"
	}

	tmpl, err := template.New("report.html.tmpl").Funcs(templateFuncs()).ParseFS(templatesFS, "templates/report.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}

	return &Renderer{title: title, tmpl: tmpl}, nil
}

// Summarize computes the executive summary for a snapshot.
func Summarize(snap models.Snapshot) ExecutiveSummary {
	return ExecutiveSummary{
		Quality:         Quality(snap.Overall.PassRate),
		PassRate:        snap.Overall.PassRate,
		Recommendations: Recommendations(snap),
		TopFailures:     TopFailures(snap.Failures, maxTopFailures),
	}
}

// Render produces all three artifacts. It performs no I/O.
func (r *Renderer) Render(snap models.Snapshot, env models.EnvironmentSnapshot) (*Artifacts, error) {
	summary := Summarize(snap)

	doc := Document{
		Timestamp:      env.GeneratedAt,
		Metrics:        snap.Overall,
		BrowserMetrics: snap.BrowserChannels(),
		SuiteMetrics:   snap.Suites,
		APIMetrics:     snap.API,
		Failures:       snap.Failures,
		Environment:    env,
		Summary:        summary,
	}
	if doc.SuiteMetrics == nil {
		doc.SuiteMetrics = []models.SuiteMetrics{}
	}
	if doc.Failures == nil {
		doc.Failures = []models.FailureRecord{}
	}

	jsonData, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report data: %w", err)
	}

	var html bytes.Buffer
	if err := r.tmpl.Execute(&html, r.buildView(snap, env, summary)); err != nil {
		return nil, fmt.Errorf("failed to render HTML report: %w", err)
	}

	return &Artifacts{
		HTML:    html.Bytes(),
		JSON:    append(jsonData, '\n'),
		Summary: []byte(ExecutiveMarkdown(r.title, snap, env, summary)),
	}, nil
}
