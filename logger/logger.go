package logger

import (
	"github.com/rs/zerolog"
	"os"
	"strings"
)

// SetupLogging renames the zerolog fields to the names the platform's log
// collectors expect.
func SetupLogging() {
	zerolog.LevelFieldName = "level_name"
	zerolog.TimestampFieldName = "timestamp"
}

// NewLogger returns a stderr JSON logger tagged with the component name.
// The level comes from MDL_COMN_LOGLEVEL and falls back to info.
func NewLogger(component string) zerolog.Logger {
	return zerolog.New(os.Stderr).
		With().
		Str("component", component).
		Timestamp().
		Logger().
		Level(configuredLevel())
}

func configuredLevel() zerolog.Level {
	switch strings.ToUpper(os.Getenv("MDL_COMN_LOGLEVEL")) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "FATAL":
		return zerolog.FatalLevel
	case "PANIC":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}
