package browser

import (
	"github.com/kamilpajak/qaharness/internal/report"
)

// ExpectationFromDocument derives what the HTML report must show from the
// test-data.json document rendered alongside it.
func ExpectationFromDocument(doc report.Document) ReportExpectation {
	exp := ReportExpectation{
		Quality:  string(doc.Summary.Quality),
		Suites:   len(doc.SuiteMetrics),
		ByStatus: map[string]int{"passed": 0, "failed": 0, "skipped": 0, "flaky": 0},
	}
	for _, s := range doc.SuiteMetrics {
		for _, row := range s.Tests {
			exp.Tests++
			if row.Flaky {
				exp.ByStatus["flaky"]++
				continue
			}
			exp.ByStatus[string(row.Status.Bucket())]++
		}
	}
	return exp
}
