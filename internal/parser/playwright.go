package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kamilpajak/qaharness/pkg/models"
)

// SuiteSeparator joins nested suite titles into one suite name.
const SuiteSeparator = " › "

// PlaywrightParser parses Playwright JSON reports
type PlaywrightParser struct{}

// Report is a parsed Playwright run: every test with its attempts in retry order.
type Report struct {
	Stats Stats
	Tests []TestRun
}

// Stats are the run totals Playwright reports itself.
type Stats struct {
	Expected   int
	Unexpected int
	Flaky      int
	Skipped    int
}

// TestRun is one test in one project with all of its attempts.
type TestRun struct {
	ID       models.TestIdentity
	File     string
	Line     int
	Attempts []models.TestAttempt
}

// playwrightReport represents the raw Playwright JSON structure
type playwrightReport struct {
	Suites []playwrightSuite `json:"suites"`
	Stats  playwrightStats   `json:"stats"`
}

type playwrightStats struct {
	Expected   int `json:"expected"`
	Unexpected int `json:"unexpected"`
	Flaky      int `json:"flaky"`
	Skipped    int `json:"skipped"`
}

type playwrightSuite struct {
	Title  string            `json:"title"`
	File   string            `json:"file"`
	Specs  []playwrightSpec  `json:"specs"`
	Suites []playwrightSuite `json:"suites"`
}

type playwrightSpec struct {
	Title string           `json:"title"`
	File  string           `json:"file"`
	Line  int              `json:"line"`
	Tests []playwrightTest `json:"tests"`
}

type playwrightTest struct {
	ProjectName string             `json:"projectName"`
	Status      string             `json:"status"`
	Results     []playwrightResult `json:"results"`
}

type playwrightResult struct {
	Status   string            `json:"status"`
	Duration int64             `json:"duration"`
	Retry    int               `json:"retry"`
	Error    *playwrightError  `json:"error"`
	Errors   []playwrightError `json:"errors"`
}

type playwrightError struct {
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

// Parse reads and parses a Playwright JSON report file
func (p *PlaywrightParser) Parse(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	return p.ParseBytes(data)
}

// ParseReader parses a Playwright JSON report from r
func (p *PlaywrightParser) ParseReader(r io.Reader) (*Report, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	return p.ParseBytes(data)
}

// ParseBytes parses Playwright JSON from raw bytes
func (p *PlaywrightParser) ParseBytes(data []byte) (*Report, error) {
	var raw playwrightReport
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return p.normalize(raw), nil
}

func (p *PlaywrightParser) normalize(raw playwrightReport) *Report {
	report := &Report{
		Stats: Stats{
			Expected:   raw.Stats.Expected,
			Unexpected: raw.Stats.Unexpected,
			Flaky:      raw.Stats.Flaky,
			Skipped:    raw.Stats.Skipped,
		},
		Tests: make([]TestRun, 0),
	}

	for _, suite := range raw.Suites {
		p.collect(report, suite, nil)
	}

	return report
}

// collect walks a suite tree depth first, specs before nested suites.
func (p *PlaywrightParser) collect(report *Report, raw playwrightSuite, parents []string) {
	path := parents
	if title := strings.TrimSpace(raw.Title); title != "" {
		path = append(append([]string(nil), parents...), title)
	}
	suiteName := strings.Join(path, SuiteSeparator)

	for _, spec := range raw.Specs {
		file := spec.File
		if file == "" {
			file = raw.File
		}
		for _, test := range spec.Tests {
			if len(test.Results) == 0 {
				continue
			}
			run := TestRun{
				ID: models.TestIdentity{
					Suite:   suiteName,
					Title:   spec.Title,
					Channel: test.ProjectName,
				},
				File:     file,
				Line:     spec.Line,
				Attempts: make([]models.TestAttempt, 0, len(test.Results)),
			}
			for _, result := range test.Results {
				run.Attempts = append(run.Attempts, normalizeResult(result))
			}
			report.Tests = append(report.Tests, run)
		}
	}

	for _, nested := range raw.Suites {
		p.collect(report, nested, path)
	}
}

func normalizeResult(r playwrightResult) models.TestAttempt {
	attempt := models.TestAttempt{
		Status:     models.ParseStatus(r.Status),
		DurationMS: r.Duration,
		Retry:      r.Retry,
	}

	// Extract error info
	switch {
	case len(r.Errors) > 0:
		attempt.Error = r.Errors[0].Message
	case r.Error != nil:
		attempt.Error = r.Error.Message
	}

	return attempt
}
