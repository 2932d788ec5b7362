// Package browser drives web UI checks through page objects composed over a
// Navigator.
package browser

// Navigator is the set of page interactions page objects are built from.
// Selectors are Playwright selectors; actions apply to the first match.
type Navigator interface {
	Goto(url string) error
	Click(selector string) error
	Fill(selector, value string) error
	Text(selector string) (string, error)
	Visible(selector string) (bool, error)
	Count(selector string) (int, error)
	Title() (string, error)
}
