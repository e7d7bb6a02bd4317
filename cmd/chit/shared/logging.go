package shared

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// SetupLogger configures zerolog with pretty console output
func SetupLogger(level zerolog.Level, w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// SetupStructuredLogger configures zerolog for structured (JSON) output
func SetupStructuredLogger(level zerolog.Level, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// NewLogger builds a stderr logger from a level name and a format
// ("console" or "json").
func NewLogger(level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	switch format {
	case "", "console":
		return SetupLogger(lvl, os.Stderr), nil
	case "json":
		return SetupStructuredLogger(lvl, os.Stderr), nil
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", format)
	}
}
