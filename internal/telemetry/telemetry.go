// Package telemetry exports the last run's metrics in Prometheus format.
package telemetry

import (
	"net/http"

	"github.com/kamilpajak/qaharness/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const MetricsNamespace = "qaharness"

// Recorder holds the gauges describing the most recent run. Each Recorder
// owns its registry so several can coexist in one process.
type Recorder struct {
	registry *prometheus.Registry

	tests            *prometheus.GaugeVec
	passRate         *prometheus.GaugeVec
	duration         *prometheus.GaugeVec
	failureRecords   *prometheus.GaugeVec
	suitePassRate    *prometheus.GaugeVec
	channelPassRate  *prometheus.GaugeVec
	lastRunTimestamp *prometheus.GaugeVec
}

// NewRecorder registers the run gauges on a fresh registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		tests: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "tests",
			Help:      "Tests of the last run by final result",
		}, []string{"environment", "result"}),
		passRate: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "pass_rate_percent",
			Help:      "Overall pass rate of the last run",
		}, []string{"environment"}),
		duration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "test_duration_seconds",
			Help:      "Summed duration of the final attempts of the last run",
		}, []string{"environment"}),
		failureRecords: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "failed_attempts",
			Help:      "Failed or timed-out attempts of the last run, retries included",
		}, []string{"environment"}),
		suitePassRate: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "suite_pass_rate_percent",
			Help:      "Pass rate per suite of the last run",
		}, []string{"environment", "suite"}),
		channelPassRate: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "channel_pass_rate_percent",
			Help:      "Pass rate per execution channel of the last run",
		}, []string{"environment", "channel"}),
		lastRunTimestamp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}, []string{"environment"}),
	}
}

// Record replaces the exported values with snap.
func (r *Recorder) Record(snap models.Snapshot, env models.EnvironmentSnapshot) {
	name := env.Environment
	o := snap.Overall

	r.tests.Reset()
	r.tests.WithLabelValues(name, "passed").Set(float64(o.Passed))
	r.tests.WithLabelValues(name, "failed").Set(float64(o.Failed))
	r.tests.WithLabelValues(name, "skipped").Set(float64(o.Skipped))
	r.tests.WithLabelValues(name, "flaky").Set(float64(o.Flaky))
	r.tests.WithLabelValues(name, "total").Set(float64(o.Total))

	r.passRate.Reset()
	r.passRate.WithLabelValues(name).Set(o.PassRate)
	r.duration.Reset()
	r.duration.WithLabelValues(name).Set(float64(o.DurationMS) / 1000)
	r.failureRecords.Reset()
	r.failureRecords.WithLabelValues(name).Set(float64(len(snap.Failures)))

	r.suitePassRate.Reset()
	for _, s := range snap.Suites {
		r.suitePassRate.WithLabelValues(name, s.Name).Set(s.PassRate)
	}

	r.channelPassRate.Reset()
	for _, c := range snap.Channels {
		r.channelPassRate.WithLabelValues(name, c.Name).Set(c.PassRate)
	}
	if snap.API != nil {
		r.channelPassRate.WithLabelValues(name, snap.API.Name).Set(snap.API.PassRate)
	}

	r.lastRunTimestamp.Reset()
	if !snap.FinishedAt.IsZero() {
		r.lastRunTimestamp.WithLabelValues(name).Set(float64(snap.FinishedAt.Unix()))
	}
}

// Registry returns the registry the gauges live in
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
