//go:build !tinygo

package hal

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// hostLogger routes the kernel's debug path through a structured console
// logger on stderr, keeping stdout free for the serial console.
type hostLogger struct {
	log zerolog.Logger
}

func newHostLogger() *hostLogger {
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return &hostLogger{
		log: zerolog.New(w).With().Timestamp().Logger(),
	}
}

func (l *hostLogger) WriteLineString(s string) {
	l.log.Info().Msg(s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.log.Info().Msg(string(b))
}
