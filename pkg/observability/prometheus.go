// Package observability provides observability utilities
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// WriteMetricsFile writes every registered metric to path in the text exposition format,
// for pickup by a node exporter textfile collector after a run.
func WriteMetricsFile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}

	logrus.WithField("path", path).Debug("Wrote metrics file")

	return nil
}
