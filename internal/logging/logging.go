// Package logging builds the structured logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Options configures New.
type Options struct {
	Level      string
	Format     string // "text" or "json"
	Verbose    bool   // forces debug level
	File       string // optional rotating log file
	MaxSizeMB  int
	MaxBackups int
	Output     io.Writer // defaults to os.Stderr
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates a logger writing to Output and, when File is set, to a rotating file.
// The returned closer flushes and closes the file.
func New(opts Options) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	if opts.Verbose {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)

	switch opts.Format {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, nil, fmt.Errorf("invalid log format %q", opts.Format)
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	if opts.File == "" {
		log.SetOutput(out)
		return log, nopCloser{}, nil
	}

	rf, err := NewRotatingFile(opts.File, int64(opts.MaxSizeMB)*1024*1024, opts.MaxBackups)
	if err != nil {
		return nil, nil, err
	}
	log.SetOutput(io.MultiWriter(out, rf))

	return log, rf, nil
}

// Discard returns a logger that drops everything, for tests and library defaults.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
