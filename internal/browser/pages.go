package browser

import (
	"errors"
	"fmt"
	"strings"
)

// DocsSelectors locate the parts of a documentation site
type DocsSelectors struct {
	Heading      string
	SearchInput  string
	SearchSubmit string
	Results      string
	NavLinks     string
}

// DefaultDocsSelectors match common static documentation generators.
var DefaultDocsSelectors = DocsSelectors{
	Heading:      "h1",
	SearchInput:  "input[type=search]",
	SearchSubmit: "button[type=submit]",
	Results:      ".search-result",
	NavLinks:     "nav a",
}

// DocsPage is the documentation site under test
type DocsPage struct {
	nav     Navigator
	baseURL string
	sel     DocsSelectors
}

// NewDocsPage binds a DocsPage to nav
func NewDocsPage(nav Navigator, baseURL string, sel DocsSelectors) *DocsPage {
	return &DocsPage{nav: nav, baseURL: strings.TrimRight(baseURL, "/"), sel: sel}
}

// Open navigates to path below the base URL
func (p *DocsPage) Open(path string) error {
	return p.nav.Goto(p.baseURL + "/" + strings.TrimLeft(path, "/"))
}

// Heading returns the page's main heading
func (p *DocsPage) Heading() (string, error) {
	text, err := p.nav.Text(p.sel.Heading)
	return strings.TrimSpace(text), err
}

// Search submits query and returns the number of results
func (p *DocsPage) Search(query string) (int, error) {
	if err := p.nav.Fill(p.sel.SearchInput, query); err != nil {
		return 0, fmt.Errorf("could not fill search: %w", err)
	}
	if err := p.nav.Click(p.sel.SearchSubmit); err != nil {
		return 0, fmt.Errorf("could not submit search: %w", err)
	}
	return p.nav.Count(p.sel.Results)
}

// NavLinkCount returns the number of navigation links
func (p *DocsPage) NavLinkCount() (int, error) {
	return p.nav.Count(p.sel.NavLinks)
}

// ReportPage is the rendered HTML test report
type ReportPage struct {
	nav Navigator
}

// NewReportPage binds a ReportPage to nav
func NewReportPage(nav Navigator) *ReportPage {
	return &ReportPage{nav: nav}
}

// Open loads the report at url
func (p *ReportPage) Open(url string) error {
	return p.nav.Goto(url)
}

// Quality returns the quality label shown in the header
func (p *ReportPage) Quality() (string, error) {
	text, err := p.nav.Text("#quality")
	return strings.TrimSpace(text), err
}

// Filter clicks the status filter button: all, passed, failed, skipped or flaky
func (p *ReportPage) Filter(status string) error {
	return p.nav.Click(fmt.Sprintf(`.filters button[data-filter=%q]`, status))
}

// VisibleRows counts test rows not hidden by the current filter
func (p *ReportPage) VisibleRows() (int, error) {
	return p.nav.Count("tr.test:not(.hidden)")
}

// Rows counts test rows with the given filter status
func (p *ReportPage) Rows(status string) (int, error) {
	return p.nav.Count(fmt.Sprintf(`tr.test[data-status=%q]`, status))
}

// Suites counts the suite sections
func (p *ReportPage) Suites() (int, error) {
	return p.nav.Count("details.suite")
}

// ExpandSuite opens the collapsible section of the named suite
func (p *ReportPage) ExpandSuite(name string) error {
	return p.nav.Click(fmt.Sprintf(`details.suite[data-suite=%q] > summary`, name))
}

// ShowFirstError expands the first error block and reports whether it became visible
func (p *ReportPage) ShowFirstError() (bool, error) {
	if err := p.nav.Click("button.toggle-error"); err != nil {
		return false, err
	}
	return p.nav.Visible("tr.error-row.open")
}

// ReportExpectation is what a rendered report must show
type ReportExpectation struct {
	Quality string
	Tests   int
	Suites  int
	// ByStatus maps a filter status to its expected row count.
	ByStatus map[string]int
}

// Verify checks the open report against exp, exercising the status filter.
// All mismatches are returned joined.
func (p *ReportPage) Verify(exp ReportExpectation) error {
	var errs []error
	check := func(what string, got, want int, err error) {
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", what, err))
		case got != want:
			errs = append(errs, fmt.Errorf("%s: got %d, want %d", what, got, want))
		}
	}

	if q, err := p.Quality(); err != nil {
		errs = append(errs, fmt.Errorf("quality: %w", err))
	} else if q != exp.Quality {
		errs = append(errs, fmt.Errorf("quality: got %q, want %q", q, exp.Quality))
	}

	n, err := p.Suites()
	check("suites", n, exp.Suites, err)

	n, err = p.VisibleRows()
	check("rows", n, exp.Tests, err)

	for _, status := range []string{"passed", "failed", "skipped", "flaky"} {
		want, ok := exp.ByStatus[status]
		if !ok {
			continue
		}
		if err := p.Filter(status); err != nil {
			errs = append(errs, fmt.Errorf("filter %s: %w", status, err))
			continue
		}
		n, err := p.VisibleRows()
		check("rows filtered by "+status, n, want, err)
	}

	if err := p.Filter("all"); err != nil {
		errs = append(errs, fmt.Errorf("filter all: %w", err))
	}

	return errors.Join(errs...)
}
