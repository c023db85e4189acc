// Package logger builds the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the service logger. Development output is rendered by
// the console writer for readability; everything else emits JSON
// lines for log shippers.
func New(serviceName string, development bool) zerolog.Logger {
	return newLogger(os.Stdout, serviceName, development)
}

func newLogger(out io.Writer, serviceName string, development bool) zerolog.Logger {
	w := out
	if development {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	}
	return zerolog.New(w).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}
