// Package logging builds the diagnostic logger shared by gpm's components.
// Diagnostics go to stderr; command results are printed separately.
package logging

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel accepts debug, info, warn (or warning) and error.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel, nil
	case "info":
		return log.InfoLevel, nil
	case "", "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.WarnLevel, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// New returns a logger writing to w. verbose forces debug level.
func New(w io.Writer, level string, verbose bool) (*log.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = log.DebugLevel
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          "gpm",
		ReportTimestamp: verbose,
		TimeFormat:      "15:04:05",
	}), nil
}
