package events

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/kamilpajak/qaharness/internal/logging"
	"github.com/kamilpajak/qaharness/internal/metrics"
	"github.com/kamilpajak/qaharness/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	calls []string
	ends  []models.TestAttempt
}

func (s *recordingSink) OnRunBegin(planned int) {
	s.calls = append(s.calls, "begin")
}

func (s *recordingSink) OnTestBegin(id models.TestIdentity) {
	s.calls = append(s.calls, "testBegin:"+id.Title)
}

func (s *recordingSink) OnTestEnd(id models.TestIdentity, attempt models.TestAttempt) {
	s.calls = append(s.calls, "testEnd:"+id.Title)
	s.ends = append(s.ends, attempt)
}

func (s *recordingSink) OnRunEnd() models.Snapshot {
	s.calls = append(s.calls, "end")
	return models.Snapshot{}
}

const sampleStream = `{"type":"begin","planned":2}
{"type":"testBegin","suite":"Posts API","title":"creates post","channel":"api"}
{"type":"testEnd","suite":"Posts API","title":"creates post","channel":"api","status":"failed","duration":250,"error":"expected 201, got 500","retry":0}
{"type":"testEnd","suite":"Posts API","title":"creates post","channel":"api","status":"passed","duration":300,"retry":1}

not json at all
{"type":"testBegin","suite":"Docs UI","title":"home loads","channel":"chromium"}
{"type":"testEnd","suite":"Docs UI","title":"home loads","channel":"chromium","status":"passed","duration":1200}
{"type":"end"}
{"type":"testEnd","suite":"Docs UI","title":"ignored","channel":"chromium","status":"passed"}
`

func TestDecode_DispatchesInOrder(t *testing.T) {
	sink := &recordingSink{}

	res, err := Decode(context.Background(), strings.NewReader(sampleStream), sink, logging.Discard())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"begin",
		"testBegin:creates post",
		"testEnd:creates post",
		"testEnd:creates post",
		"testBegin:home loads",
		"testEnd:home loads",
		"end",
	}, sink.calls)
	assert.True(t, res.Ended)
	assert.Equal(t, 7, res.Events)
	assert.Equal(t, 1, res.Skipped)

	require.Len(t, sink.ends, 3)
	assert.Equal(t, models.TestAttempt{Status: models.StatusFailed, DurationMS: 250, Error: "expected 201, got 500"}, sink.ends[0])
	assert.Equal(t, 1, sink.ends[1].Retry)
}

func TestDecode_IntoAggregator(t *testing.T) {
	agg, err := metrics.New(metrics.Config{UnknownSuite: "Unknown", APIChannel: "api"}, logging.Discard())
	require.NoError(t, err)

	res, err := Decode(context.Background(), strings.NewReader(sampleStream), agg, logging.Discard())
	require.NoError(t, err)

	snap := res.Snapshot
	assert.Equal(t, 2, snap.Planned)
	assert.Equal(t, 2, snap.Overall.Total)
	assert.Equal(t, 2, snap.Overall.Passed)
	assert.Equal(t, 1, snap.Overall.Flaky)
	assert.Equal(t, int64(1500), snap.Overall.DurationMS)
	assert.Len(t, snap.Failures, 1)
	require.NotNil(t, snap.API)
	assert.Equal(t, 1, snap.API.Total)
	require.Len(t, snap.Channels, 1)
	assert.Equal(t, "chromium", snap.Channels[0].Name)
}

func TestDecode_MissingEndFinalizes(t *testing.T) {
	sink := &recordingSink{}
	stream := `{"type":"testEnd","title":"a","status":"passed"}`

	res, err := Decode(context.Background(), strings.NewReader(stream), sink, logging.Discard())
	require.NoError(t, err)

	assert.False(t, res.Ended)
	assert.Equal(t, []string{"begin", "testEnd:a", "end"}, sink.calls, "implicit begin and end")
}

func TestDecode_UnknownTypeSkipped(t *testing.T) {
	sink := &recordingSink{}
	stream := "{\"type\":\"begin\"}\n{\"type\":\"stdout\",\"text\":\"hi\"}\n{\"type\":\"end\"}\n"

	res, err := Decode(context.Background(), strings.NewReader(stream), sink, logging.Discard())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{"begin", "end"}, sink.calls)
}

func TestDecode_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Decode(ctx, strings.NewReader(sampleStream), &recordingSink{}, logging.Discard())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvent_UnknownStatusIsFailure(t *testing.T) {
	ev := Event{Type: TypeTestEnd, Status: "interrupted"}
	assert.Equal(t, models.StatusFailed, ev.Attempt().Status)
}

func TestConsoleReporter_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	sink := &recordingSink{}
	rep := NewConsoleReporter(&buf, sink)
	assert.False(t, rep.Emoji, "a buffer is not a terminal")

	_, err := Decode(context.Background(), strings.NewReader(sampleStream), rep, logging.Discard())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Running 2 test(s)")
	assert.Contains(t, out, "[RUN  ] Posts API › creates post [api]")
	assert.Contains(t, out, "[FAIL ] Posts API › creates post [api] (250ms)\n    expected 201, got 500")
	assert.Contains(t, out, "[FLAKY] Posts API › creates post [api] (300ms) retry #1")
	assert.Contains(t, out, "[PASS ] Docs UI › home loads [chromium] (1.2s)")
	assert.Contains(t, out, "Finished:")
	assert.Len(t, sink.calls, 7, "all calls forwarded")
}

func TestConsoleReporter_Emoji(t *testing.T) {
	var buf bytes.Buffer
	rep := NewConsoleReporter(&buf, &recordingSink{})
	rep.Emoji = true

	rep.OnTestBegin(models.TestIdentity{Title: "t"})
	rep.OnTestEnd(models.TestIdentity{Title: "t"}, models.TestAttempt{Status: models.StatusTimedOut, DurationMS: 30000})
	rep.OnTestEnd(models.TestIdentity{Title: "s"}, models.TestAttempt{Status: models.StatusSkipped})

	out := buf.String()
	assert.Contains(t, out, "⏳ t")
	assert.Contains(t, out, "⏱️ t (30.0s)")
	assert.Contains(t, out, "⏭️ s (0ms)")
}
