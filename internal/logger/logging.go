// Package logger provides a preconfigured charmbracelet/log logger shared by
// the CLI and TUI code paths.
package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

// New creates a charm logger with the given prefix.
func New(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		ReportCaller:    false,
		ReportTimestamp: true,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
}

// NewWithLevel creates a charm logger with a fixed level, used by tests and
// the one-shot CLI commands.
func NewWithLevel(prefix string, level log.Level) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportTimestamp: false,
		Formatter:       log.TextFormatter,
	})
}
