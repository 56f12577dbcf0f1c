// Package logging constructs the process-wide logger.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to stdout. Debug mode enables trace-level
// output with a human-readable formatter; otherwise output is JSON at info
// level.
func New(debug bool) *logrus.Logger {
	log := logrus.New()
	log.Out = os.Stdout

	if debug {
		log.SetLevel(logrus.TraceLevel)
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}
