// SPDX-License-Identifier: MPL-2.0

// Package logging builds the diagnostic logger shared by the CLI and applets.
package logging

import (
	"io"

	"github.com/invowk/multicall/internal/config"

	"github.com/charmbracelet/log"
)

// New creates a logger writing to w at the given level. Unknown levels fall
// back to warn.
func New(w io.Writer, level config.LogLevel) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: config.AppName,
		Level:  Level(level),
	})
	return logger
}

// Level converts a configured level to a charmbracelet/log level.
func Level(level config.LogLevel) log.Level {
	parsed, err := log.ParseLevel(string(level))
	if err != nil {
		return log.WarnLevel
	}
	return parsed
}
