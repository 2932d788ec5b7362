// Package metrics aggregates test lifecycle events into run metrics.
package metrics

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kamilpajak/qaharness/internal/config"
	"github.com/kamilpajak/qaharness/pkg/models"
	"github.com/sirupsen/logrus"
)

// Config configures an Aggregator
type Config struct {
	// UnknownSuite replaces an empty suite name. Required.
	UnknownSuite string
	// APIChannel is reported as API metrics instead of a browser. Required.
	APIChannel string
}

// Aggregator records per-test attempts for one run and derives the run's
// metrics on demand. It is safe for concurrent use.
type Aggregator struct {
	cfg Config
	log logrus.FieldLogger
	now func() time.Time

	mu         sync.Mutex
	planned    int
	startedAt  time.Time
	finishedAt time.Time
	seen       map[models.TestIdentity]struct{}
	attempts   map[models.TestIdentity][]models.TestAttempt
	order      []models.TestIdentity
	failures   []models.FailureRecord
}

// New creates an Aggregator. It fails when a required Config field is empty.
func New(cfg Config, log logrus.FieldLogger) (*Aggregator, error) {
	if cfg.UnknownSuite == "" {
		return nil, &config.MissingKeyError{Key: "aggregation.unknown_suite"}
	}
	if cfg.APIChannel == "" {
		return nil, &config.MissingKeyError{Key: "aggregation.api_channel"}
	}

	a := &Aggregator{
		cfg: cfg,
		log: log.WithField("component", "aggregator"),
		now: time.Now,
	}
	a.reset()
	return a, nil
}

func (a *Aggregator) reset() {
	a.planned = 0
	a.startedAt = time.Time{}
	a.finishedAt = time.Time{}
	a.seen = make(map[models.TestIdentity]struct{})
	a.attempts = make(map[models.TestIdentity][]models.TestAttempt)
	a.order = nil
	a.failures = make([]models.FailureRecord, 0)
}

// OnRunBegin resets all state and records the run start.
func (a *Aggregator) OnRunBegin(planned int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.attempts) > 0 || len(a.seen) > 0 {
		a.log.WithField("recorded", len(a.attempts)).Warn("run begin received mid-run, discarding recorded results")
	}

	a.reset()
	a.planned = planned
	a.startedAt = a.now()

	a.log.WithField("planned", planned).Debug("run started")
}

// OnTestBegin registers a test as seen. It only feeds progress reporting.
func (a *Aggregator) OnTestBegin(id models.TestIdentity) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.seen[a.normalizeIdentity(id)] = struct{}{}
}

// OnTestEnd appends one attempt for id. Repeated calls for the same id are
// retries; the last call is the attempt used for classification.
func (a *Aggregator) OnTestEnd(id models.TestIdentity, attempt models.TestAttempt) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id = a.normalizeIdentity(id)
	attempt = normalizeAttempt(attempt)

	if _, ok := a.attempts[id]; !ok {
		a.order = append(a.order, id)
	}
	a.attempts[id] = append(a.attempts[id], attempt)
	a.seen[id] = struct{}{}

	if attempt.Status.IsFailure() {
		a.failures = append(a.failures, models.FailureRecord{
			Title:      id.Title,
			Suite:      id.Suite,
			Channel:    id.Channel,
			Error:      attempt.Error,
			DurationMS: attempt.DurationMS,
			Retry:      attempt.Retry,
		})
	}
}

// OnRunEnd returns the run's aggregates. It does not mutate recorded attempts,
// so calling it again returns an equal snapshot.
func (a *Aggregator) OnRunEnd() models.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.finishedAt.IsZero() {
		a.finishedAt = a.now()
	}

	return a.snapshot()
}

// Progress reports how many tests have been seen and finished so far.
func (a *Aggregator) Progress() (seen, finished, planned int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.seen), len(a.attempts), a.planned
}

// Current returns the running aggregates without marking the run finished.
func (a *Aggregator) Current() models.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.snapshot()
}

func (a *Aggregator) snapshot() models.Snapshot {
	snap := models.Snapshot{
		Planned:    a.planned,
		StartedAt:  a.startedAt,
		FinishedAt: a.finishedAt,
		Failures:   make([]models.FailureRecord, len(a.failures)),
	}
	copy(snap.Failures, a.failures)

	var overall models.GroupMetrics
	suites := newGroupIndex()
	channels := newGroupIndex()
	var api *models.ChannelMetrics
	suiteTests := make(map[string][]models.TestRow)

	for _, id := range a.order {
		row := classify(id, a.attempts[id])

		accumulate(&overall, row)
		suites.add(id.Suite, row)
		suiteTests[id.Suite] = append(suiteTests[id.Suite], row)

		if id.Channel == a.cfg.APIChannel {
			if api == nil {
				api = &models.ChannelMetrics{GroupMetrics: models.GroupMetrics{Name: id.Channel}}
			}
			accumulate(&api.GroupMetrics, row)
			continue
		}
		channels.add(id.Channel, row)
	}

	snap.Overall = models.OverallMetrics{
		Total:      overall.Total,
		Passed:     overall.Passed,
		Failed:     overall.Failed,
		Skipped:    overall.Skipped,
		Flaky:      overall.Flaky,
		DurationMS: overall.DurationMS,
		PassRate:   models.PassRate(overall.Passed, overall.Total),
	}

	snap.Suites = make([]models.SuiteMetrics, 0, len(suites.order))
	for _, g := range suites.finish() {
		snap.Suites = append(snap.Suites, models.SuiteMetrics{GroupMetrics: g, Tests: suiteTests[g.Name]})
	}
	sort.SliceStable(snap.Suites, func(i, j int) bool {
		return snap.Suites[i].PassRate > snap.Suites[j].PassRate
	})

	snap.Channels = make([]models.ChannelMetrics, 0, len(channels.order))
	for _, g := range channels.finish() {
		snap.Channels = append(snap.Channels, models.ChannelMetrics{GroupMetrics: g})
	}
	sort.SliceStable(snap.Channels, func(i, j int) bool {
		return snap.Channels[i].Name < snap.Channels[j].Name
	})

	if api != nil {
		api.PassRate = models.PassRate(api.Passed, api.Total)
		snap.API = api
	}

	return snap
}

// classify collapses a test's attempts: the last attempt decides the bucket
// and the duration, earlier attempts only matter for flakiness.
func classify(id models.TestIdentity, attempts []models.TestAttempt) models.TestRow {
	last := attempts[len(attempts)-1]
	return models.TestRow{
		TestIdentity: id,
		Status:       last.Status.Bucket(),
		Attempts:     len(attempts),
		Flaky:        len(attempts) > 1 && last.Status == models.StatusPassed,
		DurationMS:   last.DurationMS,
		Error:        last.Error,
	}
}

func accumulate(g *models.GroupMetrics, row models.TestRow) {
	g.Total++
	switch row.Status {
	case models.StatusPassed:
		g.Passed++
	case models.StatusSkipped:
		g.Skipped++
	default:
		g.Failed++
	}
	if row.Flaky {
		g.Flaky++
	}
	g.DurationMS += row.DurationMS
}

func (a *Aggregator) normalizeIdentity(id models.TestIdentity) models.TestIdentity {
	id.Suite = strings.TrimSpace(id.Suite)
	if id.Suite == "" {
		id.Suite = a.cfg.UnknownSuite
	}
	id.Channel = strings.TrimSpace(id.Channel)
	return id
}

func normalizeAttempt(at models.TestAttempt) models.TestAttempt {
	if at.DurationMS < 0 {
		at.DurationMS = 0
	}
	if at.Retry < 0 {
		at.Retry = 0
	}
	switch at.Status {
	case models.StatusPassed, models.StatusFailed, models.StatusSkipped, models.StatusTimedOut:
	default:
		at.Status = models.ParseStatus(string(at.Status))
	}
	return at
}

// groupIndex accumulates GroupMetrics keyed by name, preserving first-seen order.
type groupIndex struct {
	order  []string
	groups map[string]*models.GroupMetrics
}

func newGroupIndex() *groupIndex {
	return &groupIndex{groups: make(map[string]*models.GroupMetrics)}
}

func (gi *groupIndex) add(name string, row models.TestRow) {
	g, ok := gi.groups[name]
	if !ok {
		g = &models.GroupMetrics{Name: name}
		gi.groups[name] = g
		gi.order = append(gi.order, name)
	}
	accumulate(g, row)
}

func (gi *groupIndex) finish() []models.GroupMetrics {
	out := make([]models.GroupMetrics, 0, len(gi.order))
	for _, name := range gi.order {
		g := *gi.groups[name]
		g.PassRate = models.PassRate(g.Passed, g.Total)
		out = append(out, g)
	}
	return out
}
