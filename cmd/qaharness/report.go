package qaharness

import (
	"fmt"

	"github.com/kamilpajak/qaharness/internal/exitcodes"
	"github.com/kamilpajak/qaharness/internal/parser"
	"github.com/spf13/cobra"
)

func (c *cli) newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <results.json|->",
		Short: "Build the report from a Playwright JSON report",
		Long: `Replay a Playwright JSON report through the aggregator and write
enterprise-report.html, test-data.json and executive-summary.md.

Examples:
  qaharness report ./playwright-report/results.json
  npx playwright test --reporter=json | qaharness report - --out ./out`,
		Args: cobra.ExactArgs(1),
		RunE: c.runReport,
	}
}

func (c *cli) runReport(cmd *cobra.Command, args []string) error {
	s, err := c.newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	p := &parser.PlaywrightParser{}
	var results *parser.Report
	if args[0] == "-" {
		results, err = p.ParseReader(c.stdin)
	} else {
		s.log.WithField("path", args[0]).Debug("parsing report")
		results, err = p.Parse(args[0])
	}
	if err != nil {
		return exitcodes.New(exitcodes.RuntimeErr, fmt.Errorf("failed to parse report: %w", err))
	}

	agg, err := s.newAggregator()
	if err != nil {
		return err
	}

	snap := parser.Replay(results, agg)
	return c.publish(cmd.Context(), s, snap)
}
