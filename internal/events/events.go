// Package events decodes the live test lifecycle stream and dispatches it to
// a Sink such as the metrics aggregator.
package events

import (
	"github.com/kamilpajak/qaharness/pkg/models"
)

// Event types of the NDJSON stream.
const (
	TypeBegin     = "begin"
	TypeTestBegin = "testBegin"
	TypeTestEnd   = "testEnd"
	TypeEnd       = "end"
)

// Sink receives the run lifecycle. *metrics.Aggregator satisfies it.
type Sink interface {
	OnRunBegin(planned int)
	OnTestBegin(id models.TestIdentity)
	OnTestEnd(id models.TestIdentity, attempt models.TestAttempt)
	OnRunEnd() models.Snapshot
}

// Event is one line of the stream.
type Event struct {
	Type     string `json:"type"`
	Planned  int    `json:"planned,omitempty"`
	Suite    string `json:"suite,omitempty"`
	Title    string `json:"title,omitempty"`
	Channel  string `json:"channel,omitempty"`
	Status   string `json:"status,omitempty"`
	Duration int64  `json:"duration,omitempty"` // milliseconds
	Error    string `json:"error,omitempty"`
	Retry    int    `json:"retry,omitempty"`
}

// Identity returns the test key the event refers to.
func (e Event) Identity() models.TestIdentity {
	return models.TestIdentity{Suite: e.Suite, Title: e.Title, Channel: e.Channel}
}

// Attempt returns the attempt outcome carried by a testEnd event.
func (e Event) Attempt() models.TestAttempt {
	return models.TestAttempt{
		Status:     models.ParseStatus(e.Status),
		DurationMS: e.Duration,
		Error:      e.Error,
		Retry:      e.Retry,
	}
}
