package qaharness

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/kamilpajak/qaharness/internal/browser"
	"github.com/kamilpajak/qaharness/internal/exitcodes"
	"github.com/kamilpajak/qaharness/internal/report"
	"github.com/kamilpajak/qaharness/internal/server"
	"github.com/spf13/cobra"
)

var errPlaywrightMissing = errors.New("playwright not installed. Run: qaharness verify --install")

func (c *cli) newVerifyCmd() *cobra.Command {
	var (
		install     bool
		browserName string
		headed      bool
	)

	cmd := &cobra.Command{
		Use:   "verify [dir]",
		Short: "Smoke-check a rendered report in a real browser",
		Long: `Open enterprise-report.html from a report directory in a Playwright browser
and check that it shows what test-data.json describes: quality label, suite
sections, test rows and the status filter.

The directory defaults to report.output_dir.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVerify(args, install, browserName, headed)
		},
	}
	cmd.Flags().BoolVar(&install, "install", false, "Install the Playwright driver and browser first")
	cmd.Flags().StringVar(&browserName, "browser", "", "Browser to use (overrides web.browser)")
	cmd.Flags().BoolVar(&headed, "headed", false, "Show the browser window")

	return cmd
}

func (c *cli) runVerify(args []string, install bool, browserName string, headed bool) error {
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
	if browserName == "" {
		browserName = cfg.Web.Browser
	}

	doc, err := report.ReadDocument(filepath.Join(dir, report.JSONFilename))
	if err != nil {
		return exitcodes.New(exitcodes.RuntimeErr, err)
	}
	expected := browser.ExpectationFromDocument(*doc)

	if install {
		fmt.Fprintf(c.stderr, "Installing Playwright %s...\n", browserName)
		if err := browser.Install(browserName); err != nil {
			return exitcodes.New(exitcodes.RuntimeErr, fmt.Errorf("failed to install playwright: %w", err))
		}
	}
	if !browser.IsAvailable() {
		return exitcodes.New(exitcodes.RuntimeErr, errPlaywrightMissing)
	}

	srv, err := server.Start(dir, server.Options{Logger: log})
	if err != nil {
		return exitcodes.New(exitcodes.RuntimeErr, err)
	}
	defer srv.Stop()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(c.stderr))
	s.Suffix = fmt.Sprintf(" Verifying report in %s...", browserName)
	s.Start()

	verifyErr, err := verifyReport(srv.URL(report.HTMLFilename), expected, browser.SessionOptions{
		Browser:  browserName,
		Headless: cfg.Web.Headless && !headed,
		Timeout:  30 * time.Second,
	})
	s.Stop()

	if err != nil {
		return exitcodes.New(exitcodes.RuntimeErr, err)
	}
	if verifyErr != nil {
		return exitcodes.New(exitcodes.TestFailure, fmt.Errorf("report verification failed:\n%w", verifyErr))
	}

	fmt.Fprintf(c.stdout, "Report verified: %d tests in %d suites, quality %s\n", expected.Tests, expected.Suites, expected.Quality)
	return nil
}

// verifyReport returns the verification mismatches separately from errors
// that kept the check from running at all.
func verifyReport(url string, expected browser.ReportExpectation, opts browser.SessionOptions) (mismatch error, err error) {
	session, err := browser.Open(opts)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	page := browser.NewReportPage(session.Navigator())
	if err := page.Open(url); err != nil {
		return nil, err
	}
	return page.Verify(expected), nil
}
