package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kamilpajak/qaharness/pkg/models"
)

// FormatDuration renders milliseconds for display: "Nms" below a second,
// "N.Ss" below a minute and "Mm S.Ss" above. Tenths are truncated, not
// rounded, so 59999 is "59.9s". Negative input is treated as 0.
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	switch {
	case ms < 1000:
		return fmt.Sprintf("%dms", ms)
	case ms < 60000:
		return fmt.Sprintf("%d.%ds", ms/1000, (ms%1000)/100)
	default:
		rem := ms % 60000
		return fmt.Sprintf("%dm %d.%ds", ms/60000, rem/1000, (rem%1000)/100)
	}
}

// FormatPercent renders a pass rate with one decimal.
func FormatPercent(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate)
}

// firstLine returns the first non-blank line of an error text.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// formatErrorText pretty-prints error payloads that carry a JSON body.
// Anything that does not parse is returned unchanged; it never fails.
func formatErrorText(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return s
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(trimmed), "", "  "); err != nil {
		return s
	}
	return buf.String()
}

func statusIcon(status models.TestStatus, flaky bool) string {
	if flaky {
		return "🔁"
	}
	switch status {
	case models.StatusPassed:
		return "✅"
	case models.StatusSkipped:
		return "⏭️"
	case models.StatusTimedOut:
		return "⏱️"
	default:
		return "❌"
	}
}

// filterStatus is the value the HTML status filter matches on.
func filterStatus(row models.TestRow) string {
	if row.Flaky {
		return "flaky"
	}
	return string(row.Status.Bucket())
}
