package events

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/kamilpajak/qaharness/internal/report"
	"github.com/kamilpajak/qaharness/pkg/models"
	"github.com/mattn/go-isatty"
)

// ConsoleReporter prints a line per test lifecycle event and forwards every
// call to the wrapped Sink.
type ConsoleReporter struct {
	next Sink
	w    io.Writer

	// Emoji selects emoji status markers. It defaults to true only when the
	// writer is a terminal.
	Emoji bool

	mu sync.Mutex
}

// NewConsoleReporter wraps next, writing progress lines to w.
func NewConsoleReporter(w io.Writer, next Sink) *ConsoleReporter {
	return &ConsoleReporter{next: next, w: w, Emoji: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (c *ConsoleReporter) OnRunBegin(planned int) {
	c.printf("Running %d test(s)\n", planned)
	c.next.OnRunBegin(planned)
}

func (c *ConsoleReporter) OnTestBegin(id models.TestIdentity) {
	c.printf("%s %s\n", c.marker("run"), describe(id))
	c.next.OnTestBegin(id)
}

func (c *ConsoleReporter) OnTestEnd(id models.TestIdentity, attempt models.TestAttempt) {
	key := string(attempt.Status)
	if attempt.Status == models.StatusPassed && attempt.Retry > 0 {
		key = "flaky"
	}

	line := fmt.Sprintf("%s %s (%s)", c.marker(key), describe(id), report.FormatDuration(attempt.DurationMS))
	if attempt.Retry > 0 {
		line += fmt.Sprintf(" retry #%d", attempt.Retry)
	}
	if attempt.Status.IsFailure() {
		if msg := firstLine(attempt.Error); msg != "" {
			line += "\n    " + msg
		}
	}
	c.printf("%s\n", line)
	c.next.OnTestEnd(id, attempt)
}

func (c *ConsoleReporter) OnRunEnd() models.Snapshot {
	snap := c.next.OnRunEnd()
	o := snap.Overall
	c.printf("Finished: %d passed, %d failed, %d skipped, %d flaky in %s\n",
		o.Passed, o.Failed, o.Skipped, o.Flaky, report.FormatDuration(o.DurationMS))
	return snap
}

func (c *ConsoleReporter) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, args...)
}

var (
	emojiMarkers = map[string]string{
		"run":                         "⏳",
		string(models.StatusPassed):   "✅",
		string(models.StatusFailed):   "❌",
		string(models.StatusSkipped):  "⏭️",
		string(models.StatusTimedOut): "⏱️",
		"flaky":                       "🔁",
	}
	plainMarkers = map[string]string{
		"run":                         "[RUN  ]",
		string(models.StatusPassed):   "[PASS ]",
		string(models.StatusFailed):   "[FAIL ]",
		string(models.StatusSkipped):  "[SKIP ]",
		string(models.StatusTimedOut): "[TIME ]",
		"flaky":                       "[FLAKY]",
	}
)

func (c *ConsoleReporter) marker(key string) string {
	if c.Emoji {
		return emojiMarkers[key]
	}
	return plainMarkers[key]
}

func describe(id models.TestIdentity) string {
	s := id.Title
	if id.Suite != "" {
		s = id.Suite + " › " + s
	}
	if id.Channel != "" {
		s += " [" + id.Channel + "]"
	}
	return s
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
