// Package logger configures the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options selects the level and output format.
type Options struct {
	Level  string // debug, info, warn, error
	Pretty bool   // console output instead of JSON lines
	Output io.Writer
}

// Init replaces the global logger. Unknown levels fall back to info.
func Init(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// LogInfo logs a formatted info message.
func LogInfo(format string, args ...any) {
	log.Info().Msgf(format, args...)
}

// LogError logs a formatted error message.
func LogError(format string, args ...any) {
	log.Error().Msgf(format, args...)
}

// LogPanic logs a recovered panic with its stack trace.
func LogPanic(r any) {
	log.Error().
		Interface("panic", r).
		Str("stack", string(debug.Stack())).
		Msg("recovered from panic")
}
