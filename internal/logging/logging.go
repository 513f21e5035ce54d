// Package logging builds the loggers used by the check and install commands.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Options controls logger verbosity
type Options struct {
	Verbose bool   // Include debug output
	Quiet   bool   // Errors only
	Prefix  string // Shown before every line
}

// Level returns the log level selected by opts. Quiet wins over Verbose.
func (o Options) Level() log.Level {
	switch {
	case o.Quiet:
		return log.ErrorLevel
	case o.Verbose:
		return log.DebugLevel
	default:
		return log.InfoLevel
	}
}

// New returns a logger writing to w.
func New(w io.Writer, opts Options) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          opts.Prefix,
		Level:           opts.Level(),
		ReportTimestamp: true,
	})
}

// OpenFile opens path for a fresh log, truncating what an earlier run left.
func OpenFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// Tee returns a logger writing to both w and the file at path. The returned
// close function releases the file. When the file cannot be opened the
// logger writes to w alone and the error is logged.
func Tee(w io.Writer, path string, opts Options) (*log.Logger, func() error) {
	f, err := OpenFile(path)
	if err != nil {
		logger := New(w, opts)
		logger.Warn("Logging to terminal only", "err", err)
		return logger, func() error { return nil }
	}

	return New(io.MultiWriter(w, f), opts), f.Close
}
