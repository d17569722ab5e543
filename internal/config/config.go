// Package config loads the pointer tables and sheet configurations of the
// converter and creates its logger.
package config

import (
	"os"

	"github.com/retroenv/retrogolib/log"
)

// CreateLogger returns the logger for a subcommand run. Logs go to stderr so
// that listings written to stdout stay clean.
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = os.Stderr

	switch {
	case debug:
		cfg.Level = log.DebugLevel
		cfg.CallerInfo = true
	case quiet:
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}
