// Package cmd contains the CLI commands for shiftgraph
package cmd

import (
	"fmt"
	"os"

	"github.com/ethpandaops/shiftgraph/pkg/observability"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Global vars needed for cobra CLI
var (
	cfgFile     string
	metricsFile string
	logger      *logrus.Logger
)

// rootCmd represents the base command
//
//nolint:gochecknoglobals // Cobra commands are typically global
var rootCmd = &cobra.Command{
	Use:   "shiftgraph",
	Short: "Resolve systematic shift variants into validated computation plans",
	Long: `shiftgraph reads producer, parameter and shift declarations and resolves them,
for one era and sample, into one validated and ordered computation graph per
(scope, shift) variant. Variants doing identical work are aliased to each other.`,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		if metricsFile == "" {
			return nil
		}

		return observability.WriteMetricsFile(metricsFile)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./shiftgraph.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error, fatal, panic); overrides the config file")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write resolution metrics in Prometheus text format to this file")

	logger = logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = "./shiftgraph.yaml"
	}
}

// applyLogLevel sets the level from the flag, falling back to the config file
func applyLogLevel(cmd *cobra.Command, configured string) {
	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil || logLevel == "" {
		logLevel = configured
	}

	level, parseErr := logrus.ParseLevel(logLevel)
	if parseErr != nil {
		logger.WithError(parseErr).Warn("Invalid log level, defaulting to warn")
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)
}
