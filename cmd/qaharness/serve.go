package qaharness

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kamilpajak/qaharness/internal/exitcodes"
	"github.com/kamilpajak/qaharness/internal/report"
	"github.com/kamilpajak/qaharness/internal/server"
	"github.com/kamilpajak/qaharness/internal/telemetry"
	"github.com/spf13/cobra"
)

func (c *cli) newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Serve a report directory and its Prometheus metrics",
		Long: `Serve the report artifacts over HTTP. When the directory holds a
test-data.json, the run's metrics are exported on /metrics.

The directory defaults to report.output_dir.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, args, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")

	return cmd
}

func (c *cli) runServe(cmd *cobra.Command, args []string, addr string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return exitcodes.New(exitcodes.RuntimeErr, err)
	}
	log, closer, err := c.newLogger(cfg)
	if err != nil {
		return exitcodes.New(exitcodes.RuntimeErr, err)
	}
	defer closer.Close()

	dir := cfg.Report.OutputDir
	if len(args) == 1 {
		dir = args[0]
	}

	recorder := telemetry.NewRecorder()
	doc, err := report.ReadDocument(filepath.Join(dir, report.JSONFilename))
	switch {
	case err == nil:
		recorder.Record(doc.Snapshot(), doc.Environment)
	case errors.Is(err, os.ErrNotExist):
		log.WithField("dir", dir).Warn("no report data found, /metrics will be empty")
	default:
		return exitcodes.New(exitcodes.RuntimeErr, err)
	}

	srv, err := server.Start(dir, server.Options{
		Addr:     addr,
		Handlers: map[string]http.Handler{"GET /metrics": recorder.Handler()},
		Logger:   log,
	})
	if err != nil {
		return exitcodes.New(exitcodes.RuntimeErr, err)
	}

	fmt.Fprintf(c.stdout, "Serving %s on %s (Ctrl+C to stop)\n", dir, srv.URL(report.HTMLFilename))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Wait(ctx); err != nil {
		return exitcodes.New(exitcodes.RuntimeErr, err)
	}
	return nil
}
