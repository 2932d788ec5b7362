package report

import (
	"fmt"

	"github.com/kamilpajak/qaharness/pkg/models"
)

// QualityRating is the qualitative label of a run's pass rate
type QualityRating string

const (
	QualityExcellent QualityRating = "EXCELLENT"
	QualityGood      QualityRating = "GOOD"
	QualityFair      QualityRating = "FAIR"
	QualityPoor      QualityRating = "POOR"
)

// Quality bands are fixed, lower bound inclusive.
const (
	excellentThreshold = 95.0
	goodThreshold      = 85.0
	fairThreshold      = 70.0

	// investigateThreshold triggers the "investigate failing tests" recommendation.
	investigateThreshold = 90.0
)

// Quality maps a pass rate onto its rating band.
func Quality(passRate float64) QualityRating {
	switch {
	case passRate >= excellentThreshold:
		return QualityExcellent
	case passRate >= goodThreshold:
		return QualityGood
	case passRate >= fairThreshold:
		return QualityFair
	default:
		return QualityPoor
	}
}

// FailureCount is an error first line and how often it occurred.
type FailureCount struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// TopFailures groups failure records by the first line of their error text,
// most frequent first. Ties keep first-seen order. limit <= 0 means no limit.
func TopFailures(failures []models.FailureRecord, limit int) []FailureCount {
	index := make(map[string]int)
	var out []FailureCount
	for _, f := range failures {
		msg := firstLine(f.Error)
		if msg == "" {
			msg = "(no error message)"
		}
		if i, ok := index[msg]; ok {
			out[i].Count++
			continue
		}
		index[msg] = len(out)
		out = append(out, FailureCount{Message: msg, Count: 1})
	}

	// Insertion sort keeps ties stable and the list is short.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Count > out[j-1].Count; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Recommendations derives the executive-summary actions for a run.
func Recommendations(snap models.Snapshot) []string {
	var recs []string

	if snap.Overall.PassRate < investigateThreshold {
		recs = append(recs, fmt.Sprintf("Investigate failing tests: pass rate %s is below the %.0f%% target", FormatPercent(snap.Overall.PassRate), investigateThreshold))
	}

	if snap.Overall.Flaky > 0 {
		recs = append(recs, fmt.Sprintf("Address flaky tests: %d test(s) passed only after a retry", snap.Overall.Flaky))
	}

	if top := TopFailures(snap.Failures, 1); len(top) > 0 {
		recs = append(recs, fmt.Sprintf("Most common failure (%d occurrence(s)): %s", top[0].Count, top[0].Message))
	}

	if len(recs) == 0 {
		recs = append(recs, "Maintain quality: all tests passed within targets")
	}

	return recs
}
