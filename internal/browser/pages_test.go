package browser

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kamilpajak/qaharness/internal/report"
	"github.com/kamilpajak/qaharness/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReport emulates the rendered report's DOM for the selectors the page
// objects use.
type fakeReport struct {
	visited   []string
	clicks    []string
	fills     map[string]string
	quality   string
	suites    int
	rows      []string
	filter    string
	errorOpen bool
	texts     map[string]string
	counts    map[string]int
	failOn    string
}

func newFakeReport(quality string, suites int, rows ...string) *fakeReport {
	return &fakeReport{
		quality: quality,
		suites:  suites,
		rows:    rows,
		filter:  "all",
		fills:   map[string]string{},
		texts:   map[string]string{},
		counts:  map[string]int{},
	}
}

func (f *fakeReport) Goto(url string) error {
	f.visited = append(f.visited, url)
	return nil
}

func (f *fakeReport) Click(selector string) error {
	if f.failOn != "" && strings.Contains(selector, f.failOn) {
		return errors.New("element not found")
	}
	f.clicks = append(f.clicks, selector)
	if strings.HasPrefix(selector, ".filters button[data-filter=") {
		f.filter = strings.TrimSuffix(strings.TrimPrefix(selector, `.filters button[data-filter="`), `"]`)
	}
	if selector == "button.toggle-error" {
		f.errorOpen = true
	}
	return nil
}

func (f *fakeReport) Fill(selector, value string) error {
	f.fills[selector] = value
	return nil
}

func (f *fakeReport) Text(selector string) (string, error) {
	if selector == "#quality" {
		return " " + f.quality + "\n", nil
	}
	if t, ok := f.texts[selector]; ok {
		return t, nil
	}
	return "", fmt.Errorf("no element matches %s", selector)
}

func (f *fakeReport) Visible(selector string) (bool, error) {
	if selector == "tr.error-row.open" {
		return f.errorOpen, nil
	}
	return false, nil
}

func (f *fakeReport) Count(selector string) (int, error) {
	switch selector {
	case "details.suite":
		return f.suites, nil
	case "tr.test:not(.hidden)":
		n := 0
		for _, r := range f.rows {
			if f.filter == "all" || r == f.filter {
				n++
			}
		}
		return n, nil
	}
	return f.counts[selector], nil
}

func (f *fakeReport) Title() (string, error) {
	return "Enterprise Test Report", nil
}

func TestReportPage_FilterAndCount(t *testing.T) {
	nav := newFakeReport("GOOD", 2, "passed", "passed", "failed", "flaky")
	page := NewReportPage(nav)

	require.NoError(t, page.Open("http://127.0.0.1:1234/enterprise-report.html"))
	assert.Equal(t, []string{"http://127.0.0.1:1234/enterprise-report.html"}, nav.visited)

	q, err := page.Quality()
	require.NoError(t, err)
	assert.Equal(t, "GOOD", q)

	require.NoError(t, page.Filter("failed"))
	n, err := page.VisibleRows()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, page.Filter("all"))
	n, err = page.VisibleRows()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestReportPage_ExpandAndShowError(t *testing.T) {
	nav := newFakeReport("POOR", 1, "failed")
	page := NewReportPage(nav)

	require.NoError(t, page.ExpandSuite(`Docs "UI"`))
	assert.Equal(t, `details.suite[data-suite="Docs \"UI\""] > summary`, nav.clicks[0])

	visible, err := page.ShowFirstError()
	require.NoError(t, err)
	assert.True(t, visible)
}

func TestReportPage_Verify(t *testing.T) {
	nav := newFakeReport("FAIR", 2, "passed", "passed", "passed", "failed")
	page := NewReportPage(nav)

	err := page.Verify(ReportExpectation{
		Quality:  "FAIR",
		Tests:    4,
		Suites:   2,
		ByStatus: map[string]int{"passed": 3, "failed": 1, "flaky": 0},
	})
	require.NoError(t, err)
	assert.Equal(t, "all", nav.filter, "filter reset after verification")
}

func TestReportPage_VerifyReportsAllMismatches(t *testing.T) {
	nav := newFakeReport("POOR", 1, "passed", "failed")
	page := NewReportPage(nav)

	err := page.Verify(ReportExpectation{
		Quality:  "GOOD",
		Tests:    3,
		Suites:   1,
		ByStatus: map[string]int{"failed": 2},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `quality: got "POOR", want "GOOD"`)
	assert.Contains(t, err.Error(), "rows: got 2, want 3")
	assert.Contains(t, err.Error(), "rows filtered by failed: got 1, want 2")
	assert.NotContains(t, err.Error(), "suites")
}

func TestReportPage_VerifyFilterError(t *testing.T) {
	nav := newFakeReport("GOOD", 1, "passed")
	nav.failOn = "skipped"
	page := NewReportPage(nav)

	err := page.Verify(ReportExpectation{Quality: "GOOD", Tests: 1, Suites: 1, ByStatus: map[string]int{"skipped": 0}})
	assert.ErrorContains(t, err, "filter skipped: element not found")
}

func TestDocsPage(t *testing.T) {
	nav := newFakeReport("", 0)
	nav.texts["h1"] = "  Getting started \n"
	nav.counts[".search-result"] = 7
	nav.counts["nav a"] = 12

	page := NewDocsPage(nav, "https://docs.example.com/", DefaultDocsSelectors)

	require.NoError(t, page.Open("/guide/intro"))
	assert.Equal(t, "https://docs.example.com/guide/intro", nav.visited[0])

	heading, err := page.Heading()
	require.NoError(t, err)
	assert.Equal(t, "Getting started", heading)

	results, err := page.Search("retries")
	require.NoError(t, err)
	assert.Equal(t, 7, results)
	assert.Equal(t, "retries", nav.fills["input[type=search]"])
	assert.Contains(t, nav.clicks, "button[type=submit]")

	links, err := page.NavLinkCount()
	require.NoError(t, err)
	assert.Equal(t, 12, links)
}

func TestDocsPage_SearchSubmitError(t *testing.T) {
	nav := newFakeReport("", 0)
	nav.failOn = "submit"

	_, err := NewDocsPage(nav, "https://docs.example.com", DefaultDocsSelectors).Search("x")
	assert.ErrorContains(t, err, "could not submit search")
}

func TestExpectationFromDocument(t *testing.T) {
	doc := report.Document{
		Summary: report.ExecutiveSummary{Quality: report.QualityFair},
		SuiteMetrics: []models.SuiteMetrics{
			{Tests: []models.TestRow{
				{Status: models.StatusPassed},
				{Status: models.StatusPassed, Flaky: true},
			}},
			{Tests: []models.TestRow{
				{Status: models.StatusTimedOut},
				{Status: models.StatusSkipped},
			}},
		},
	}

	exp := ExpectationFromDocument(doc)

	assert.Equal(t, "FAIR", exp.Quality)
	assert.Equal(t, 2, exp.Suites)
	assert.Equal(t, 4, exp.Tests)
	assert.Equal(t, map[string]int{"passed": 1, "failed": 1, "skipped": 1, "flaky": 1}, exp.ByStatus)
}
