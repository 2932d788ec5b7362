package events

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kamilpajak/qaharness/pkg/models"
	"github.com/sirupsen/logrus"
)

// maxLineSize bounds a single event line. Error payloads with stack traces
// and response bodies can be large.
const maxLineSize = 4 * 1024 * 1024

// Result summarizes a decoded stream.
type Result struct {
	Snapshot models.Snapshot
	Events   int
	Skipped  int
	// Ended is false when the stream closed without an "end" event.
	Ended bool
}

// Decode reads NDJSON events from r and dispatches them to sink until an
// "end" event or EOF. Malformed lines are logged and skipped. A stream that
// closes without "end" is finalized as if it had received one.
func Decode(ctx context.Context, r io.Reader, sink Sink, log logrus.FieldLogger) (Result, error) {
	var res Result
	began := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		line++

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			res.Skipped++
			log.WithFields(logrus.Fields{"line": line, "error": err}).Warn("skipping malformed event")
			continue
		}

		switch ev.Type {
		case TypeBegin:
			sink.OnRunBegin(ev.Planned)
			began = true
		case TypeTestBegin, TypeTestEnd:
			if !began {
				log.WithField("line", line).Warn("test event before run begin, starting run implicitly")
				sink.OnRunBegin(0)
				began = true
			}
			if ev.Type == TypeTestBegin {
				sink.OnTestBegin(ev.Identity())
			} else {
				sink.OnTestEnd(ev.Identity(), ev.Attempt())
			}
		case TypeEnd:
			res.Events++
			res.Ended = true
			res.Snapshot = sink.OnRunEnd()
			return res, nil
		default:
			res.Skipped++
			log.WithFields(logrus.Fields{"line": line, "type": ev.Type}).Warn("skipping unknown event type")
			continue
		}
		res.Events++
	}

	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("failed to read event stream: %w", err)
	}

	log.Warn("event stream closed without end event")
	res.Snapshot = sink.OnRunEnd()
	return res, nil
}
