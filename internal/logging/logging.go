// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets the global level and writes human-readable output to stderr.
// Unknown levels fall back to info.
func Init(level string) {
	InitWithWriter(level, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// InitJSON sets the global level and writes JSON lines to w.
func InitJSON(level string, w io.Writer) {
	InitWithWriter(level, w)
}

// InitWithWriter sets the global level and output.
func InitWithWriter(level string, w io.Writer) {
	zerolog.SetGlobalLevel(ParseLevel(level))
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// WithPlatform returns a child logger tagged with an upstream platform.
func WithPlatform(platform string) zerolog.Logger {
	return log.With().Str("platform", platform).Logger()
}

// WithUser returns a child logger tagged with a user id.
func WithUser(userID string) zerolog.Logger {
	return log.With().Str("user_id", userID).Logger()
}

// WithRequestID returns a child logger tagged with a request id.
func WithRequestID(requestID string) zerolog.Logger {
	return log.With().Str("request_id", requestID).Logger()
}
