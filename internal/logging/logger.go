// Package logging builds the structured loggers shared by every protohack
// server: a zerolog logger for operational logs, grounded on the teacher's
// monitoring.NewLogger, plus panic-recovery helpers used by every pump
// goroutine.
package logging

import (
	"os"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
)

// Config mirrors config.Base's logging fields.
type Config struct {
	Level  string
	Format string
}

// New builds a zerolog.Logger: JSON to stdout by default, a pretty
// ConsoleWriter when Format is "pretty".
func New(cfg Config, service string) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out = os.Stdout
	logger := zerolog.New(out)
	if cfg.Format == "pretty" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return logger.With().Timestamp().Str("service", service).Logger()
}

// RecoverPanic is deferred first in every pump/worker goroutine so a panic
// is logged and contained instead of crashing the process.
func RecoverPanic(logger zerolog.Logger, goroutine string, fields map[string]any) {
	if r := recover(); r != nil {
		event := logger.Error().
			Str("goroutine", goroutine).
			Interface("panic_value", r).
			Str("stack_trace", string(debug.Stack()))
		for k, v := range fields {
			event = event.Interface(k, v)
		}
		event.Msg("goroutine panic recovered")
	}
}
