// Package exitcodes defines the process exit codes of qaharness.
package exitcodes

import (
	"errors"
	"strconv"
)

// Exit code constants. CI pipelines branch on these:
//
// * Success (0): every test passed and all artifacts were written
// * TestFailure (1): the run completed but at least one test failed
// * RuntimeErr (2): configuration, input or runtime errors
// * ReportErr (3): the report could not be rendered; report-error.txt was written instead
const (
	Success     = 0
	TestFailure = 1
	RuntimeErr  = 2
	ReportErr   = 3
)

// Error carries the exit code a command should terminate with.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "exit status " + strconv.Itoa(e.Code)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with an exit code.
func New(code int, err error) *Error {
	return &Error{Code: code, Err: err}
}

// Code maps an error returned by a command onto an exit code: nil is Success,
// an *Error carries its own code and anything else is a RuntimeErr.
func Code(err error) int {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return RuntimeErr
}
