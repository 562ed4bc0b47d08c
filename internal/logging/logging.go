// Package logging builds the logrus loggers used by the command line tools
// and the server.
package logging

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// New returns a text logger writing to out. verbose enables debug output.
func New(out io.Writer, verbose bool) *log.Logger {
	logger := log.New()
	logger.SetOutput(out)
	logger.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(log.InfoLevel)
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}
