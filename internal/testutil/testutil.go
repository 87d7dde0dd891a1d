// Package testutil provides fixtures for unit tests: silent loggers, producer builders
// and small ready-made configurations.
package testutil

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger returns a logger that discards everything
func Logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.DebugLevel)

	return log
}
