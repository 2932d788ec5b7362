package models

import "time"

// GroupMetrics holds the counters shared by suite and channel breakdowns
type GroupMetrics struct {
	Name       string  `json:"name"`
	Total      int     `json:"total"`
	Passed     int     `json:"passed"`
	Failed     int     `json:"failed"`
	Skipped    int     `json:"skipped"`
	Flaky      int     `json:"flaky"`
	DurationMS int64   `json:"duration_ms"`
	PassRate   float64 `json:"pass_rate"`
}

// SuiteMetrics aggregates the tests of one suite
type SuiteMetrics struct {
	GroupMetrics
	Tests []TestRow `json:"tests"`
}

// ChannelMetrics aggregates the tests of one execution channel (browser or api)
type ChannelMetrics struct {
	GroupMetrics
}

// OverallMetrics aggregates the whole run
type OverallMetrics struct {
	Total      int     `json:"total"`
	Passed     int     `json:"passed"`
	Failed     int     `json:"failed"`
	Skipped    int     `json:"skipped"`
	Flaky      int     `json:"flaky"`
	DurationMS int64   `json:"duration_ms"`
	PassRate   float64 `json:"pass_rate"`
}

// Snapshot is the finalized, read-only output of a run's aggregation.
type Snapshot struct {
	Planned    int              `json:"planned"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Overall    OverallMetrics   `json:"overall"`
	Suites     []SuiteMetrics   `json:"suites"`
	Channels   []ChannelMetrics `json:"channels"`
	API        *ChannelMetrics  `json:"api,omitempty"`
	Failures   []FailureRecord  `json:"failures"`
}

// HasFailures returns true if any test ended in the failed bucket
func (s *Snapshot) HasFailures() bool {
	return s.Overall.Failed > 0
}

// BrowserChannels returns the channel breakdown keyed by channel name.
// The API channel is never part of Channels, so the map only holds browsers.
func (s *Snapshot) BrowserChannels() map[string]ChannelMetrics {
	out := make(map[string]ChannelMetrics, len(s.Channels))
	for _, c := range s.Channels {
		out[c.Name] = c
	}
	return out
}

// PassRate returns passed/total*100, or 0 when total is 0.
func PassRate(passed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(passed) / float64(total) * 100
}
