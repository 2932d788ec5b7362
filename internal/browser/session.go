package browser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// SessionOptions configures a browser session
type SessionOptions struct {
	// Browser is chromium, firefox or webkit. Empty means chromium.
	Browser  string
	Headless bool
	// Timeout applies to every page action. Zero keeps Playwright's default.
	Timeout time.Duration
}

// Session is a running browser with a single page
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

// Open starts Playwright and launches the configured browser
func Open(opts SessionOptions) (*Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	browserType, err := selectBrowser(pw, opts.Browser)
	if err != nil {
		_ = pw.Stop()
		return nil, err
	}

	b, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}

	page, err := b.NewPage()
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	if opts.Timeout > 0 {
		page.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))
	}

	return &Session{pw: pw, browser: b, page: page}, nil
}

func selectBrowser(pw *playwright.Playwright, name string) (playwright.BrowserType, error) {
	switch strings.ToLower(name) {
	case "", "chromium", "chrome":
		return pw.Chromium, nil
	case "firefox":
		return pw.Firefox, nil
	case "webkit", "safari":
		return pw.WebKit, nil
	default:
		return nil, fmt.Errorf("unsupported browser %q", name)
	}
}

// Navigator returns the page driver for page objects
func (s *Session) Navigator() Navigator {
	return &pageNavigator{page: s.page}
}

// Close shuts down the browser and the Playwright driver
func (s *Session) Close() error {
	return errors.Join(s.browser.Close(), s.pw.Stop())
}

// Install installs the Playwright driver and the named browsers
func Install(browsers ...string) error {
	return playwright.Install(&playwright.RunOptions{Browsers: browsers})
}

// IsAvailable checks if playwright browsers are installed
func IsAvailable() bool {
	pw, err := playwright.Run()
	if err != nil {
		return false
	}
	_ = pw.Stop()
	return true
}

type pageNavigator struct {
	page playwright.Page
}

func (n *pageNavigator) Goto(url string) error {
	if _, err := n.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	}); err != nil {
		return fmt.Errorf("could not navigate to %s: %w", url, err)
	}
	return nil
}

func (n *pageNavigator) Click(selector string) error {
	return n.page.Locator(selector).First().Click()
}

func (n *pageNavigator) Fill(selector, value string) error {
	return n.page.Locator(selector).First().Fill(value)
}

func (n *pageNavigator) Text(selector string) (string, error) {
	return n.page.Locator(selector).First().InnerText()
}

func (n *pageNavigator) Visible(selector string) (bool, error) {
	return n.page.Locator(selector).First().IsVisible()
}

func (n *pageNavigator) Count(selector string) (int, error) {
	return n.page.Locator(selector).Count()
}

func (n *pageNavigator) Title() (string, error) {
	return n.page.Title()
}
