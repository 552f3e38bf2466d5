package utils

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the global zerolog logger and returns it.
// format is "json" or "console"; unknown levels fall back to info.
func InitLogger(level, format string) zerolog.Logger {
	return InitLoggerTo(os.Stderr, level, format)
}

func InitLoggerTo(out io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02 15:04:05"}
	}

	logger := zerolog.New(out).With().Timestamp().Str("service", "ielts-prep").Logger()
	log.Logger = logger
	return logger
}
