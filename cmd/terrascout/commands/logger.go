package commands

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/terrascout/terrascout/pkg/explorer"
)

// zerologLogger adapts zerolog to explorer.Logger.
type zerologLogger struct {
	log zerolog.Logger
}

// NewLogger returns a console logger writing to w. Debug messages are only
// emitted when verbose is set.
func NewLogger(w io.Writer, verbose, noColor bool) explorer.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	console := zerolog.ConsoleWriter{Out: w, NoColor: noColor, TimeFormat: time.RFC3339}

	return NewZerologLogger(zerolog.New(console).Level(level).With().Timestamp().Logger())
}

// NewZerologLogger wraps an existing zerolog logger.
func NewZerologLogger(log zerolog.Logger) explorer.Logger {
	return &zerologLogger{log: log}
}

func (l *zerologLogger) Debug(msg string, fields map[string]interface{}) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Info(msg string, fields map[string]interface{}) {
	l.log.Info().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, fields map[string]interface{}) {
	l.log.Warn().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Error(msg string, fields map[string]interface{}) {
	l.log.Error().Fields(fields).Msg(msg)
}
