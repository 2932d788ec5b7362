package parser

import (
	"github.com/kamilpajak/qaharness/internal/events"
	"github.com/kamilpajak/qaharness/pkg/models"
)

// Replay feeds a parsed report to sink as a complete run lifecycle and
// returns the sink's final snapshot.
func Replay(report *Report, sink events.Sink) models.Snapshot {
	sink.OnRunBegin(len(report.Tests))
	for _, run := range report.Tests {
		sink.OnTestBegin(run.ID)
		for _, attempt := range run.Attempts {
			sink.OnTestEnd(run.ID, attempt)
		}
	}
	return sink.OnRunEnd()
}
