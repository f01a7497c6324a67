// Command rollbar-report sends a single occurrence to Rollbar, e.g. from a
// deploy script or a cron job that failed.
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if err := newRootCommand(log).Execute(); err != nil {
		log.Error().Err(err).Msg("rollbar-report")
		os.Exit(1)
	}
}
