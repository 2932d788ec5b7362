package qaharness

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/kamilpajak/qaharness/internal/events"
	"github.com/kamilpajak/qaharness/internal/exitcodes"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func (c *cli) newIngestCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "ingest [events.ndjson|-]",
		Short: "Aggregate a live NDJSON test event stream",
		Long: `Read test lifecycle events, one JSON object per line, and build the report
when the stream ends. Without an argument events are read from stdin.

Event lines:
  {"type":"begin","planned":12}
  {"type":"testBegin","suite":"Posts API","title":"creates post","channel":"api"}
  {"type":"testEnd","suite":"Posts API","title":"creates post","channel":"api","status":"passed","duration":312,"retry":0}
  {"type":"end"}`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runIngest(cmd, args, quiet)
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print a line per test")

	return cmd
}

func (c *cli) runIngest(cmd *cobra.Command, args []string, quiet bool) error {
	s, err := c.newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	var in io.Reader = c.stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return exitcodes.New(exitcodes.RuntimeErr, fmt.Errorf("failed to open event stream: %w", err))
		}
		defer f.Close()
		in = f
	}

	agg, err := s.newAggregator()
	if err != nil {
		return err
	}
	var sink events.Sink = agg
	if !quiet {
		sink = events.NewConsoleReporter(c.stderr, agg)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := events.Decode(ctx, in, sink, s.log)
	if err != nil {
		return exitcodes.New(exitcodes.RuntimeErr, err)
	}

	seen, finished, planned := agg.Progress()
	entry := s.log.WithFields(logrus.Fields{
		"events":   res.Events,
		"skipped":  res.Skipped,
		"seen":     seen,
		"finished": finished,
		"planned":  planned,
	})
	if planned > 0 && finished < planned {
		entry.Warn("run ended before every planned test reported a result")
	} else {
		entry.Debug("event stream consumed")
	}

	return c.publish(context.WithoutCancel(ctx), s, res.Snapshot)
}
