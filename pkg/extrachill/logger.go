package extrachill

import (
	"github.com/rs/zerolog"
)

// zerologLogger adapts a zerolog.Logger to Logger
type zerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger returns a Logger that writes through l
func NewZerologLogger(l zerolog.Logger) Logger {
	return &zerologLogger{log: l}
}

func (z *zerologLogger) Debug(msg string, keysAndValues ...interface{}) {
	z.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (z *zerologLogger) Info(msg string, keysAndValues ...interface{}) {
	z.log.Info().Fields(keysAndValues).Msg(msg)
}

func (z *zerologLogger) Warn(msg string, keysAndValues ...interface{}) {
	z.log.Warn().Fields(keysAndValues).Msg(msg)
}

func (z *zerologLogger) Error(msg string, keysAndValues ...interface{}) {
	z.log.Error().Fields(keysAndValues).Msg(msg)
}
