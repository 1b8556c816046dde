// Package platform holds process-level plumbing shared by the binaries:
// logger setup, environment lookups and HTTP middleware.
package platform

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the global zerolog logger and returns it. Unknown
// levels fall back to info. pretty selects the human console writer.
func InitLogger(level string, pretty bool) zerolog.Logger {
	return initLogger(os.Stderr, level, pretty)
}

func initLogger(out io.Writer, level string, pretty bool) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}
