package models

// TestStatus represents the outcome of a single test attempt
type TestStatus string

const (
	StatusPassed   TestStatus = "passed"
	StatusFailed   TestStatus = "failed"
	StatusSkipped  TestStatus = "skipped"
	StatusTimedOut TestStatus = "timedOut"
)

// ParseStatus maps a raw status string onto a TestStatus.
// Unknown values are reported as failed so they are never silently counted as passing.
func ParseStatus(s string) TestStatus {
	switch s {
	case "passed", "pass", "expected":
		return StatusPassed
	case "skipped", "skip", "pending":
		return StatusSkipped
	case "timedOut", "timedout", "timed-out", "timeout":
		return StatusTimedOut
	default:
		return StatusFailed
	}
}

// Bucket collapses a status into the three aggregate buckets: passed, failed, skipped.
func (s TestStatus) Bucket() TestStatus {
	switch s {
	case StatusPassed, StatusSkipped:
		return s
	default:
		return StatusFailed
	}
}

// IsFailure reports whether the attempt counts as a failure record.
func (s TestStatus) IsFailure() bool {
	return s == StatusFailed || s == StatusTimedOut
}

// TestIdentity is the stable key for one test case in one execution channel.
type TestIdentity struct {
	Suite   string `json:"suite"`
	Title   string `json:"title"`
	Channel string `json:"channel"`
}

// TestAttempt is one execution outcome for a TestIdentity
type TestAttempt struct {
	Status     TestStatus `json:"status"`
	DurationMS int64      `json:"duration_ms"`
	Error      string     `json:"error,omitempty"`
	Retry      int        `json:"retry"`
}

// TestRow is the final classification of one test, used for per-test report rows.
type TestRow struct {
	TestIdentity
	Status     TestStatus `json:"status"`
	Attempts   int        `json:"attempts"`
	Flaky      bool       `json:"flaky"`
	DurationMS int64      `json:"duration_ms"`
	Error      string     `json:"error,omitempty"`
}

// FailureRecord is one failed or timed-out attempt. Retries are not deduplicated.
type FailureRecord struct {
	Title      string `json:"title"`
	Suite      string `json:"suite"`
	Channel    string `json:"channel"`
	Error      string `json:"error"`
	DurationMS int64  `json:"duration_ms"`
	Retry      int    `json:"retry"`
}
