// Package qaharness implements the qaharness command line.
package qaharness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kamilpajak/qaharness/internal/config"
	"github.com/kamilpajak/qaharness/internal/exitcodes"
	"github.com/kamilpajak/qaharness/internal/logging"
	"github.com/kamilpajak/qaharness/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// cli carries the streams and global flags shared by every subcommand.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	outDir     string
	verbose    bool
}

// session is the per-invocation state built from configuration.
type session struct {
	cfg       *config.Config
	log       *logrus.Logger
	closer    io.Closer
	env       models.EnvironmentSnapshot
	startedAt time.Time
}

func (s *session) Close() {
	if err := s.closer.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
	}
}

// Execute runs the root command and returns the process exit code
func Execute() int {
	return execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}
	root := c.newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(context.Background())
	var exitErr *exitcodes.Error
	if err != nil && !(errors.As(err, &exitErr) && exitErr.Err == nil) {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return exitcodes.Code(err)
}

func (c *cli) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "qaharness",
		Short: "Test run aggregation and enterprise reporting",
		Long: `qaharness aggregates API and browser test results into run metrics and
renders them as an HTML report, a JSON snapshot and an executive summary.

Results come from a Playwright JSON report (report) or a live NDJSON event
stream (ingest).`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Config file (default "+config.DefaultPath+" if present)")
	root.PersistentFlags().StringVarP(&c.outDir, "out", "o", "", "Report output directory (overrides report.output_dir)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(c.newReportCmd())
	root.AddCommand(c.newIngestCmd())
	root.AddCommand(c.newServeCmd())
	root.AddCommand(c.newVerifyCmd())
	root.AddCommand(c.newConfigCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// loadConfig reads configuration and applies command line overrides.
func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.outDir != "" {
		cfg.Report.OutputDir = c.outDir
	}
	return cfg, nil
}

// newSession loads and validates configuration, builds the logger and
// resolves the environment snapshot. Errors map to RuntimeErr.
func (c *cli) newSession() (*session, error) {
	startedAt := time.Now()

	cfg, err := c.loadConfig()
	if err != nil {
		return nil, exitcodes.New(exitcodes.RuntimeErr, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, exitcodes.New(exitcodes.RuntimeErr, err)
	}

	log, closer, err := c.newLogger(cfg)
	if err != nil {
		return nil, exitcodes.New(exitcodes.RuntimeErr, err)
	}

	env, err := config.ResolveEnvironment(cfg.Environment, os.LookupEnv, startedAt, startedAt)
	if err != nil {
		_ = closer.Close()
		return nil, exitcodes.New(exitcodes.RuntimeErr, err)
	}

	log.WithFields(logrus.Fields{
		"environment": env.Environment,
		"branch":      env.Branch,
		"run_id":      env.RunID,
		"ci":          env.CI,
	}).Debug("environment resolved")

	return &session{cfg: cfg, log: log, closer: closer, env: env, startedAt: startedAt}, nil
}

func (c *cli) newLogger(cfg *config.Config) (*logrus.Logger, io.Closer, error) {
	return logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Verbose:    c.verbose,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Output:     c.stderr,
	})
}
