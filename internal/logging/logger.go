// Package logging configures the process-wide zerolog logger.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init initializes the global logger with configuration from environment variables.
// POSECHECK_LOG_LEVEL controls the log level: debug, info, warn, error (default: info)
func Init() {
	InitWithLevel(os.Getenv("POSECHECK_LOG_LEVEL"))
}

// InitWithLevel initializes the global logger at an explicit level, falling
// back to info for unrecognized values.
func InitWithLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Per-frame estimator calls are sub-second; millisecond durations keep
	// timing fields readable.
	zerolog.DurationFieldUnit = time.Millisecond

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
