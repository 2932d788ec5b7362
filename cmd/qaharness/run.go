package qaharness

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kamilpajak/qaharness/internal/exitcodes"
	"github.com/kamilpajak/qaharness/internal/metrics"
	"github.com/kamilpajak/qaharness/internal/report"
	"github.com/kamilpajak/qaharness/pkg/models"
	"github.com/sirupsen/logrus"
)

func (s *session) newAggregator() (*metrics.Aggregator, error) {
	agg, err := metrics.New(metrics.Config{
		UnknownSuite: s.cfg.Aggregation.UnknownSuite,
		APIChannel:   s.cfg.Aggregation.APIChannel,
	}, s.log)
	if err != nil {
		return nil, exitcodes.New(exitcodes.RuntimeErr, err)
	}
	return agg, nil
}

// publish renders and writes the artifacts for a finished run, prints the
// console summary and turns the run outcome into an exit code.
func (c *cli) publish(ctx context.Context, s *session, snap models.Snapshot) error {
	env := s.env
	env.GeneratedAt = time.Now()
	dir := s.cfg.Report.OutputDir

	renderer, err := report.NewRenderer(report.Options{})
	if err != nil {
		return c.renderFailed(s, dir, err)
	}
	artifacts, err := renderer.Render(snap, env)
	if err != nil {
		return c.renderFailed(s, dir, err)
	}

	if err := report.Write(ctx, dir, artifacts); err != nil {
		return exitcodes.New(exitcodes.RuntimeErr, err)
	}

	report.PrintSummary(c.stdout, snap)
	fmt.Fprintf(c.stdout, "\nReport written to %s\n", filepath.Join(dir, report.HTMLFilename))

	s.log.WithFields(logrus.Fields{
		"dir":       dir,
		"total":     snap.Overall.Total,
		"failed":    snap.Overall.Failed,
		"pass_rate": snap.Overall.PassRate,
	}).Info("report generated")

	if snap.HasFailures() {
		return exitcodes.New(exitcodes.TestFailure, nil)
	}
	return nil
}

func (c *cli) renderFailed(s *session, dir string, renderErr error) error {
	s.log.WithError(renderErr).Error("report rendering failed")
	if err := report.WriteError(dir, renderErr); err != nil {
		s.log.WithError(err).Error("failed to write error artifact")
	}
	return exitcodes.New(exitcodes.ReportErr, renderErr)
}
