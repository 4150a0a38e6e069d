// Package logging builds the zerolog loggers used across testbridge.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// EnvLevel overrides the default level when no flag is given.
const EnvLevel = "TESTBRIDGE_LOG_LEVEL"

// DefaultLevel is used when no level is configured.
const DefaultLevel = "warn"

// Options configures New.
type Options struct {
	Level  string // zerolog level name; empty means DefaultLevel
	Format string // FormatConsole or FormatJSON; empty means console
	// NoColor disables ANSI colors in console output.
	NoColor bool
}

// New returns a logger writing to w.
func New(w io.Writer, opts Options) (zerolog.Logger, error) {
	level := opts.Level
	if level == "" {
		level = DefaultLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", opts.Level)
	}

	switch opts.Format {
	case "", FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, NoColor: opts.NoColor, TimeFormat: time.TimeOnly}
	case FormatJSON:
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q (expected %q or %q)", opts.Format, FormatConsole, FormatJSON)
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}
